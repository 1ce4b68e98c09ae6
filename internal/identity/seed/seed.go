// Package seed enrolls a fixed set of participants from a YAML file through
// the administrator registration path.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"custody/internal/identity/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// File is the seed document layout:
//
//	participants:
//	  - identity: "0x5aAe..."
//	    role: Manufacturer
//	    name: Acme Manufacturing
type File struct {
	Participants []Entry `yaml:"participants"`
}

type Entry struct {
	Identity id.Identity `yaml:"identity"`
	Role     id.Role     `yaml:"role"`
	Name     string      `yaml:"name"`
}

// Registrar is the administrator enrollment operation.
type Registrar interface {
	Register(ctx context.Context, caller, identity id.Identity, role id.Role, name string) (*models.Participant, error)
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return &file, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &file, nil
}

// Apply enrolls every entry as admin. Entries that are already registered are
// skipped, so applying the same file twice is a no-op. It returns how many
// participants were enrolled.
func Apply(ctx context.Context, registrar Registrar, admin id.Identity, file *File, logger *slog.Logger) (int, error) {
	enrolled := 0
	for i, entry := range file.Participants {
		_, err := registrar.Register(ctx, admin, entry.Identity, entry.Role, entry.Name)
		switch {
		case err == nil:
			enrolled++
		case dErrors.HasCode(err, dErrors.CodeAlreadyRegistered):
			if logger != nil {
				logger.DebugContext(ctx, "seed participant already registered", "identity", entry.Identity.String())
			}
		default:
			return enrolled, fmt.Errorf("seed participant %d (%s): %w", i, entry.Identity, err)
		}
	}
	if logger != nil {
		logger.InfoContext(ctx, "participant seed applied",
			"enrolled", enrolled,
			"total", len(file.Participants),
		)
	}
	return enrolled, nil
}
