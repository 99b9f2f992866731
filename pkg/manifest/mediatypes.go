package manifest

import (
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Docker-native media types. The OCI equivalents come from the image-spec
// module (ocispec.MediaTypeImageManifest, ocispec.MediaTypeImageIndex).
const (
	MediaTypeDockerManifest     = "application/vnd.docker.distribution.manifest.v2+json"
	MediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
)

// ProbeOrder returns the Accept candidates used to discover which manifest
// kind a tag points at, highest priority first. The order is a correctness
// property: when a registry could honor either representation, the
// single-platform Docker schema wins.
func ProbeOrder() []string {
	return []string{
		MediaTypeDockerManifest,
		ocispec.MediaTypeImageIndex,
	}
}

// Kind discriminates the two structurally distinct manifest representations.
type Kind int

const (
	KindUnknown Kind = iota
	// KindImage is a single-platform manifest: one config plus ordered layers.
	KindImage
	// KindIndex is a multi-platform index listing per-platform child manifests.
	KindIndex
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindIndex:
		return "index"
	}
	return "unknown"
}

// KindOf maps a declared media type to its manifest kind. Dispatch happens
// on the media type alone, never on structural inspection, so new kinds can
// be added without touching resolution logic.
func KindOf(mediaType string) Kind {
	switch mediaType {
	case MediaTypeDockerManifest, ocispec.MediaTypeImageManifest:
		return KindImage
	case MediaTypeDockerManifestList, ocispec.MediaTypeImageIndex:
		return KindIndex
	}
	return KindUnknown
}
