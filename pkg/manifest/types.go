package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Descriptor references a content-addressed object (blob or child manifest)
type Descriptor struct {
	MediaType   string            `json:"mediaType"`
	Digest      digest.Digest     `json:"digest"`
	Size        int64             `json:"size"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// Image is a single-platform manifest: one config blob and ordered layers
type Image struct {
	SchemaVersion int               `json:"schemaVersion"`
	MediaType     string            `json:"mediaType,omitempty"`
	Config        Descriptor        `json:"config"`
	Layers        []Descriptor      `json:"layers"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

// PlatformDescriptor is a child manifest reference inside an index,
// annotated with its target platform
type PlatformDescriptor struct {
	Descriptor
	Platform *Platform `json:"platform,omitempty"`
}

// Platform represents the platform information
type Platform struct {
	Architecture string   `json:"architecture"`
	OS           string   `json:"os"`
	OSVersion    string   `json:"os.version,omitempty"`
	OSFeatures   []string `json:"os.features,omitempty"`
	Variant      string   `json:"variant,omitempty"`
}

// Index is a multi-platform manifest index (Docker manifest list or OCI
// image index)
type Index struct {
	SchemaVersion int                  `json:"schemaVersion"`
	MediaType     string               `json:"mediaType,omitempty"`
	Manifests     []PlatformDescriptor `json:"manifests"`
	Annotations   map[string]string    `json:"annotations,omitempty"`
}

// Manifest is a tagged variant discriminated by the declared media type.
// Exactly one of Image or Index is set, matching Kind.
type Manifest struct {
	Kind      Kind
	MediaType string
	Image     *Image
	Index     *Index
}

// Decode parses raw manifest bytes according to their declared media type
func Decode(raw []byte, mediaType string) (*Manifest, error) {
	switch KindOf(mediaType) {
	case KindImage:
		var img Image
		if err := json.Unmarshal(raw, &img); err != nil {
			return nil, fmt.Errorf("failed to parse image manifest: %w", err)
		}
		return &Manifest{Kind: KindImage, MediaType: mediaType, Image: &img}, nil
	case KindIndex:
		var idx Index
		if err := json.Unmarshal(raw, &idx); err != nil {
			return nil, fmt.Errorf("failed to parse manifest index: %w", err)
		}
		return &Manifest{Kind: KindIndex, MediaType: mediaType, Index: &idx}, nil
	}
	return nil, fmt.Errorf("unsupported manifest media type: %s", mediaType)
}

// Annotations returns the annotation map of whichever variant is set.
// Docker v2.2 image manifests carry no annotations, so the map may be empty.
func (m *Manifest) Annotations() map[string]string {
	switch m.Kind {
	case KindImage:
		if m.Image != nil && m.Image.Annotations != nil {
			return m.Image.Annotations
		}
	case KindIndex:
		if m.Index != nil && m.Index.Annotations != nil {
			return m.Index.Annotations
		}
	}
	return map[string]string{}
}

// References returns the child manifest descriptors of an index, or nil for
// a single-platform manifest
func (m *Manifest) References() []PlatformDescriptor {
	if m.Kind == KindIndex && m.Index != nil {
		return m.Index.Manifests
	}
	return nil
}
