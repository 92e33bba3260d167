package common_test

import (
	"testing"

	"github.com/ogero/stremio-hub/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidateManifestURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr assert.ErrorAssertionFunc
	}{
		{"https://v3-cinemeta.strem.io/manifest.json", assert.NoError},
		{"http://127.0.0.1:7000/manifest.json", assert.NoError},
		{"https://addon.example.com", assert.NoError},
		{"ftp://addon.example.com/manifest.json", assert.Error},
		{"addon.example.com/manifest.json", assert.Error},
		{"https://", assert.Error},
		{"   ", assert.Error},
		{"", assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := common.ValidateManifestURL(tt.url)
			tt.wantErr(t, err)
		})
	}
}

func TestValidateContentID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr assert.ErrorAssertionFunc
	}{
		{"tt1254207", assert.NoError},
		{"kitsu:1376", assert.NoError},
		{"  ", assert.Error},
		{"", assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := common.ValidateContentID(tt.id)
			tt.wantErr(t, err)
		})
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		t       string
		wantErr assert.ErrorAssertionFunc
	}{
		{"movie", assert.NoError},
		{"series", assert.NoError},
		{"tv", assert.NoError},
		{"", assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.t, func(t *testing.T) {
			err := common.ValidateContentType(tt.t)
			tt.wantErr(t, err)
		})
	}
}
