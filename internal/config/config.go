package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/heisthecat31/assetpatch/internal/platform"
	"github.com/heisthecat31/assetpatch/internal/utils"
)

const (
	KeyLog              = "log"
	KeyLogLevel         = "logLevel"
	KeyGameRoot         = "gameRoot"
	KeyCatalogue        = "catalogue"
	KeyBackupDir        = "backupDir"
	KeyWorkspaceDir     = "workspaceDir"
	KeyTextureDimension = "textureDimension"
	KeyPlatform         = "platform"
	EnvPrefix           = "assetpatch"

	DefaultCatalogue        = "CHT"
	DefaultBackupDir        = "Backup"
	DefaultWorkspaceDir     = "temp_workspace"
	DefaultTextureDimension = 4096.0
)

var HomeDir string
var ConfigDir string

func InitConfig() {
	var err error
	HomeDir, err = os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	ConfigDir = filepath.Join(HomeDir, ".assetpatch")
}

func InitViper() {
	viper.SetDefault(KeyLog, false)
	viper.SetDefault(KeyLogLevel, "INFO")
	viper.SetDefault(KeyGameRoot, ".")
	viper.SetDefault(KeyCatalogue, DefaultCatalogue)
	viper.SetDefault(KeyBackupDir, "")
	viper.SetDefault(KeyWorkspaceDir, "")
	viper.SetDefault(KeyTextureDimension, DefaultTextureDimension)
	viper.SetDefault(KeyPlatform, runtime.GOOS)

	viper.SetConfigType("json")
	viper.SetConfigName("config")
	if ConfigDir != "" {
		viper.AddConfigPath(ConfigDir)
	}
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; rely on defaults
		} else {
			panic("cannot read config: " + err.Error())
		}
	}
	// environment variables have to match "ASSETPATCH_<viper key>", lower or uppercase
	viper.SetEnvPrefix(EnvPrefix)

	_ = viper.BindEnv(KeyLog)              // ASSETPATCH_LOG
	_ = viper.BindEnv(KeyLogLevel)         // ASSETPATCH_LOGLEVEL
	_ = viper.BindEnv(KeyGameRoot)         // ASSETPATCH_GAMEROOT
	_ = viper.BindEnv(KeyCatalogue)        // ASSETPATCH_CATALOGUE
	_ = viper.BindEnv(KeyBackupDir)        // ASSETPATCH_BACKUPDIR
	_ = viper.BindEnv(KeyWorkspaceDir)     // ASSETPATCH_WORKSPACEDIR
	_ = viper.BindEnv(KeyTextureDimension) // ASSETPATCH_TEXTUREDIMENSION
	_ = viper.BindEnv(KeyPlatform)         // ASSETPATCH_PLATFORM
}

// Settings is the resolved configuration of one run.
type Settings struct {
	GameRoot         string
	Catalogue        string
	BackupDir        string
	WorkspaceDir     string
	LockFile         string
	TextureDimension float64
	Platform         platform.Paths
}

// LockFileName is created in the game root while a run holds the lock.
const LockFileName = ".assetpatch.lock"

// Load resolves Settings from viper. Relative backup and workspace folders are
// placed below the game root.
func Load() (Settings, error) {
	root, err := absPath(viper.GetString(KeyGameRoot))
	if err != nil {
		return Settings{}, fmt.Errorf("resolve game root: %w", err)
	}

	paths, err := platform.Detect(viper.GetString(KeyPlatform), root)
	if err != nil {
		return Settings{}, err
	}

	catalogue, err := absPath(viper.GetString(KeyCatalogue))
	if err != nil {
		return Settings{}, fmt.Errorf("resolve catalogue: %w", err)
	}

	dim := viper.GetFloat64(KeyTextureDimension)
	if dim <= 0 {
		return Settings{}, fmt.Errorf("invalid %s %v", KeyTextureDimension, dim)
	}

	return Settings{
		GameRoot:         root,
		Catalogue:        catalogue,
		BackupDir:        underRoot(root, viper.GetString(KeyBackupDir), DefaultBackupDir),
		WorkspaceDir:     underRoot(root, viper.GetString(KeyWorkspaceDir), DefaultWorkspaceDir),
		LockFile:         filepath.Join(root, LockFileName),
		TextureDimension: dim,
		Platform:         paths,
	}, nil
}

func absPath(p string) (string, error) {
	p, err := utils.ExpandHome(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(p)
}

func underRoot(root, dir, def string) string {
	if dir == "" {
		dir = def
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
