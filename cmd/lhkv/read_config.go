package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mapworks/lhmap/pkg/config"
)

func ReadConfig(w io.Writer, configPath string) *config.Config {
	dir, fileName := filepath.Dir(configPath), filepath.Base(configPath)
	conf, err := config.ReadFile(os.DirFS(dir), fileName)
	if err != nil {
		fmt.Fprintf(w, "reading config: %s\n", err)
		return nil
	}
	return conf
}
