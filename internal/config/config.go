// Package config handles the guild home directory (~/.guildhall by default)
// holding settings, the project registry, roster descriptors, persisted
// sessions, and logs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// HomeDirName is the directory created under the user's home.
	HomeDirName = ".guildhall"
	// HomeEnv overrides the guild home location.
	HomeEnv = "GUILDHALL_HOME"

	projectsFile = "projects.yaml"

	// DefaultDaemonAddress is where the guild daemon listens by default.
	DefaultDaemonAddress = "http://127.0.0.1:7171"
	// DefaultListenHost binds the gateway to loopback only.
	DefaultListenHost = "127.0.0.1"
	// DefaultListenPort is the gateway's default TCP port.
	DefaultListenPort = 8787
)

// Config holds the resolved runtime configuration.
type Config struct {
	// Home is the guild home directory.
	Home string

	DaemonAddress string
	ListenHost    string
	ListenPort    int

	RosterDir   string
	SessionsDir string
	LogsDir     string
}

// Project names one registered project root.
type Project struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// registry models projects.yaml.
type registry struct {
	Version  int       `yaml:"version"`
	Projects []Project `yaml:"projects"`
}

// Load resolves configuration from <home>/config.yaml and GUILDHALL_*
// environment overrides, then ensures the home directory structure exists.
func Load() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	v.SetEnvPrefix("GUILDHALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("daemon.address", DefaultDaemonAddress)
	v.SetDefault("listen.host", DefaultListenHost)
	v.SetDefault("listen.port", DefaultListenPort)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", filepath.Join(home, "config.yaml"), err)
		}
	}
	cfg := &Config{
		Home:          home,
		DaemonAddress: strings.TrimSpace(v.GetString("daemon.address")),
		ListenHost:    strings.TrimSpace(v.GetString("listen.host")),
		ListenPort:    v.GetInt("listen.port"),
		RosterDir:     filepath.Join(home, "roster"),
		SessionsDir:   filepath.Join(home, "sessions"),
		LogsDir:       filepath.Join(home, "logs"),
	}
	if err := cfg.ensureDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func homeDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(HomeEnv)); override != "" {
		return override, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user home: %w", err)
	}
	return filepath.Join(userHome, HomeDirName), nil
}

func (c *Config) ensureDirs() error {
	for _, dir := range []string{c.Home, c.RosterDir, c.SessionsDir, c.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return nil
}

// ProjectsPath returns the location of the project registry file.
func (c *Config) ProjectsPath() string {
	return filepath.Join(c.Home, projectsFile)
}

// Projects loads the registered projects. A missing registry is empty.
func (c *Config) Projects() ([]Project, error) {
	data, err := os.ReadFile(c.ProjectsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read registry: %w", err)
	}
	var reg registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("config: decode registry: %w", err)
	}
	return reg.Projects, nil
}

// RegisterProject appends a project to the registry. Names are unique;
// the path must exist and is stored in absolute form.
func (c *Config) RegisterProject(name, path string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("config: project name required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("config: project path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config: project path %s is not a directory", abs)
	}
	projects, err := c.Projects()
	if err != nil {
		return err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return fmt.Errorf("config: project %s already registered", name)
		}
	}
	reg := registry{Version: 1, Projects: append(projects, Project{Name: name, Path: abs})}
	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("config: encode registry: %w", err)
	}
	return os.WriteFile(c.ProjectsPath(), data, 0o644)
}
