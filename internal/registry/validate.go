package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/gmtrain/internal/arch"
	"github.com/vk/gmtrain/internal/ctxlog"
	"github.com/vk/gmtrain/internal/dataset"
)

// Validate checks that every entry is a complete triple and, for families
// with a canonical shape, that the decoders reproduce that shape. Known
// dataset families without an entry are logged but not an error.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, family := range dataset.Families() {
		if _, ok := r.entries[family]; !ok {
			logger.Warn("Dataset has no registered architectures.", "dataset", family)
		}
	}

	for _, family := range r.Families() {
		c := r.entries[family]
		if c.AEEncoder == nil {
			errs = append(errs, fmt.Sprintf("dataset '%s': missing AE encoder constructor", family))
		}
		if c.VAEEncoder == nil {
			errs = append(errs, fmt.Sprintf("dataset '%s': missing VAE encoder constructor", family))
		}
		if c.Decoder == nil {
			errs = append(errs, fmt.Sprintf("dataset '%s': missing decoder constructor", family))
			continue
		}

		canonical := family.CanonicalShape()
		if canonical == nil {
			logger.Warn("Dataset has no canonical shape, skipping decoder shape check.", "dataset", family)
			continue
		}
		if _, err := c.Decoder(arch.Spec{InputDim: canonical, LatentDim: 1}); err != nil {
			errs = append(errs, fmt.Sprintf("dataset '%s': decoder does not reproduce %v: %v", family, canonical, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
