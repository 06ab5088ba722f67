package config

import (
	"fmt"
	"regexp"

	"github.com/snowchat/snowchat/internal/cortex"
)

// identifierRe matches unquoted Snowflake identifiers. Stage and table names
// are spliced into statements that cannot be parameterized (LIST, PUT), so
// they must be plain identifiers.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Validate checks the configuration and returns the first problem found.
// Connection parameters are checked first so a missing credential is reported
// before any tuning issue.
func (c *Config) Validate() error {
	required := []struct {
		value string
		err   error
	}{
		{c.Account, ErrMissingAccount},
		{c.User, ErrMissingUser},
		{c.Password, ErrMissingPassword},
		{c.Warehouse, ErrMissingWarehouse},
		{c.Database, ErrMissingDatabase},
		{c.Schema, ErrMissingSchema},
	}
	for _, r := range required {
		if r.value == "" {
			return r.err
		}
	}

	if !identifierRe.MatchString(c.Stage) {
		return fmt.Errorf("%w: stage %q", ErrInvalidIdentifier, c.Stage)
	}
	if !identifierRe.MatchString(c.ChunkTable) {
		return fmt.Errorf("%w: chunk_table %q", ErrInvalidIdentifier, c.ChunkTable)
	}

	if !cortex.IsValidModel(c.ModelName) {
		return fmt.Errorf("%w: %q (supported: %v)", ErrInvalidModel, c.ModelName, cortex.Models)
	}

	if c.NumChunks < 1 || c.NumChunks > MaxNumChunks {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidNumChunks, c.NumChunks, MaxNumChunks)
	}
	if c.SlideWindow < 1 || c.SlideWindow > MaxSlideWindow {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidSlideWindow, c.SlideWindow, MaxSlideWindow)
	}

	return nil
}
