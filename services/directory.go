package services

import (
	"fmt"
	"path/filepath"

	"repoinit/core/log"
	"repoinit/utils"

	"github.com/spf13/afero"
)

type DirectoryConfig struct {
	BasePath   string
	Repository string
	Ref        string
}

// DirectoryService derives the per-branch working directory for a job
type DirectoryService struct {
	config DirectoryConfig
	fs     afero.Fs
}

func NewDirectoryService(config DirectoryConfig, fs afero.Fs) *DirectoryService {
	return &DirectoryService{config: config, fs: fs}
}

// GetWorkingDirectoryPath returns <base>/<repository>/branches/<ref>. Both the
// base and the repository-relative part are sanitized, so neither a base like
// "../../x" nor a ref containing ".." can move the result above the base.
func (d *DirectoryService) GetWorkingDirectoryPath() string {
	base := utils.SanitizePath(d.config.BasePath)
	rel := utils.SanitizePath(filepath.Join(d.config.Repository, "branches", d.config.Ref))
	return filepath.Join(base, rel)
}

func (d *DirectoryService) CreateWorkingDirectory() (string, error) {
	dirPath := d.GetWorkingDirectoryPath()
	log.Info("📁 Creating working directory", "path", dirPath)

	if err := d.fs.MkdirAll(dirPath, workingDirPerm); err != nil {
		return "", fmt.Errorf("failed to create working directory %s: %w", dirPath, err)
	}
	return dirPath, nil
}
