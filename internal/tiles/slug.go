package tiles

import (
	"fmt"

	"github.com/arcsys/arcsys-cli/internal/slug"
)

// CacheDirName names the per-layer cache directory. The zoom suffix keeps
// pyramids for different zoom ranges of the same layer separate.
func CacheDirName(layerName string, zoomMin, zoomMax int) string {
	return fmt.Sprintf("%s_z%d_%d", slug.Make(layerName), zoomMin, zoomMax)
}
