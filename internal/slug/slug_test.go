package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OSM Offline", "osm_offline"},
		{"already_safe-name", "already_safe-name"},
		{"Höyük Ortofoto", "hoyuk_ortofoto"},
		{"Kazı Alanı Çizimi", "kazi_alani_cizimi"},
		{"Şömine Güneyi", "somine_guneyi"},
		{"İSTANBUL", "istanbul"},
		{"  trailing  ", "trailing"},
		{"***", "layer"},
		{"", "layer"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in), "input %q", tt.in)
	}
}
