package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// File is the on-disk layout of a config file.
type File struct {
	Endpoint string      `toml:"endpoint"`
	APIKey   string      `toml:"apiKey,omitempty"`
	Timeout  string      `toml:"timeout"`
	Session  FileSession `toml:"session"`
	Render   FileRender  `toml:"render"`
	Server   FileServer  `toml:"server"`
	Log      FileLog     `toml:"log"`
}

type FileSession struct {
	TTL string `toml:"ttl"`
}

type FileRender struct {
	Width int    `toml:"width"`
	Style string `toml:"style"`
}

type FileServer struct {
	Addr string `toml:"addr"`
}

type FileLog struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// NewFile creates a file with default values. The API key is left out so it
// can come from the environment.
func NewFile() *File {
	return &File{
		Endpoint: DefaultEndpoint,
		Timeout:  DefaultTimeout.String(),
		Session:  FileSession{TTL: "0s"},
		Render:   FileRender{Width: defaultRenderWidth, Style: defaultRenderStyle},
		Server:   FileServer{Addr: DefaultAddr},
		Log:      FileLog{Level: defaultLogLevel},
	}
}

// SaveFile writes a config file as TOML. An existing file is only replaced
// when overwrite is set.
func SaveFile(filePath string, file *File, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(filePath); err == nil {
			return fmt.Errorf("config file %s already exists", filePath)
		}
	}

	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create/open config file %s: %w", filePath, err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	encoder := toml.NewEncoder(writer)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("failed to encode config to TOML file %s: %w", filePath, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer for config file %s: %w", filePath, err)
	}
	return nil
}

// LoadFile reads a config file without applying defaults or the environment.
func LoadFile(filePath string) (*File, error) {
	var file File
	if _, err := toml.DecodeFile(filePath, &file); err != nil {
		return nil, fmt.Errorf("failed to decode TOML from file %s: %w", filePath, err)
	}
	return &file, nil
}

// ToFile converts the effective configuration back to its on-disk layout.
func (c *Config) ToFile() *File {
	return &File{
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Timeout:  c.Timeout.String(),
		Session:  FileSession{TTL: c.Session.TTL.String()},
		Render:   FileRender{Width: c.Render.Width, Style: c.Render.Style},
		Server:   FileServer{Addr: c.Server.Addr},
		Log:      FileLog{Level: c.Log.Level, File: c.Log.File},
	}
}
