package release

import "strings"

// SelectAsset returns the first asset whose name contains tag, in listed order.
func SelectAsset(r *Release, tag string) *Asset {
	for i := range r.Assets {
		if strings.Contains(r.Assets[i].Name, tag) {
			return &r.Assets[i]
		}
	}
	return nil
}

// ChecksumsAsset returns the release's checksums file, if published.
func ChecksumsAsset(r *Release) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == ChecksumsAssetName {
			return &r.Assets[i]
		}
	}
	return nil
}
