package audience

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEventCatalog(t *testing.T) {
	catalog := DefaultEventCatalog()
	require.NoError(t, catalog.Validate())
	assert.True(t, catalog.Contains(AnyEvent))
	assert.True(t, catalog.Contains("Purchase"))
	assert.False(t, catalog.Contains("Teleport"))
	assert.Equal(t, AnyEvent, catalog.Events()[0])
}

func TestDecodeEventCatalog(t *testing.T) {
	doc := `
version: "1"
categories:
  - name: Standard
    events: ["Any Event", "Open (App)"]
  - name: Commerce
    events: ["Checkout"]
`
	catalog, err := DecodeEventCatalog(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{AnyEvent, "Open (App)", "Checkout"}, catalog.Events())
}

func TestDecodeEventCatalogRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty", doc: "", want: "empty"},
		{name: "unknown field", doc: "version: \"1\"\ncolor: red\n", want: "parse catalog"},
		{name: "version", doc: "version: \"2\"\ncategories: []\n", want: "unsupported catalog version"},
		{name: "unnamed", doc: "categories:\n  - events: [\"Any Event\"]\n", want: "missing a name"},
		{name: "duplicate", doc: "categories:\n  - name: A\n    events: [\"Any Event\", \"Any Event\"]\n", want: "duplicates"},
		{name: "no any event", doc: "categories:\n  - name: A\n    events: [\"Purchase\"]\n", want: "must list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEventCatalog(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadEventCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - name: All\n    events: [\"Any Event\", \"Search\"]\n"), 0o600))

	catalog, err := ReadEventCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, path, catalog.Source)
	assert.Equal(t, CatalogVersion, catalog.Version)
	assert.True(t, catalog.Contains("Search"))

	_, err = ReadEventCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEventCatalogLocalized(t *testing.T) {
	catalog := DefaultEventCatalog()
	ko := catalog.Localized("ko-KR")
	require.Len(t, ko.Categories, len(catalog.Categories))
	assert.Equal(t, "앱 표준 이벤트", ko.Categories[0].Label)
	assert.Equal(t, "커스텀 이벤트", ko.Categories[1].Label)
	assert.Empty(t, catalog.Categories[0].Label)

	en := catalog.Localized("fr")
	assert.Equal(t, "App Standard", en.Categories[0].Label)
	assert.Equal(t, catalog.Events(), en.Events())

	custom := &EventCatalog{Version: CatalogVersion, Categories: []EventCategory{{Name: "Web", Events: []string{AnyEvent}}}}
	assert.Equal(t, "Web", custom.Localized("ko").Categories[0].Label)
	assert.Nil(t, (*EventCatalog)(nil).Localized("ko"))
}
