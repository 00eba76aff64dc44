package wordpress

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/handles"
	"github.com/vk/hookbind/internal/hooks"
)

// AssetHost is the instance capability asset annotations need: turning a
// relative path into a public URL and activating an asset for output.
type AssetHost interface {
	AssetURL(path string) string
	ActivateAsset(ctx context.Context, kind hooks.AssetKind, path string) error
}

// HostProvider is implemented by instances that belong to a plugin and
// resolve assets through it.
type HostProvider interface {
	AssetHost() AssetHost
}

// HostOf returns the asset host of instance. An instance that is neither an
// AssetHost nor a HostProvider yields annotation.ErrCapabilityMissing.
func HostOf(instance any) (AssetHost, error) {
	// A nil embedded *Host still promotes its methods.
	if e, ok := instance.(embeddedHost); ok && e.assetHost() == nil {
		return nil, fmt.Errorf("%T has a nil asset host: %w", instance, annotation.ErrCapabilityMissing)
	}
	switch v := instance.(type) {
	case AssetHost:
		return v, nil
	case HostProvider:
		if h := v.AssetHost(); h != nil {
			return h, nil
		}
		return nil, fmt.Errorf("%T returned a nil asset host: %w", instance, annotation.ErrCapabilityMissing)
	}
	return nil, fmt.Errorf("%T exposes no asset host: %w", instance, annotation.ErrCapabilityMissing)
}

type embeddedHost interface {
	assetHost() *Host
}

// owned is implemented by hosts that keep explicit handles under a type
// other than the attached instance's, e.g. the plugin a controller belongs to.
type owned interface {
	Owner() reflect.Type
}

// ownerOf returns the type whose handle table an asset on an instance of t
// is recorded in.
func ownerOf(host AssetHost, t reflect.Type) reflect.Type {
	if o, ok := host.(owned); ok && o.Owner() != nil {
		return o.Owner()
	}
	return t
}

// Enqueuer marks registered assets for output.
type Enqueuer interface {
	Enqueue(kind hooks.AssetKind, handle string) error
}

// Host is an AssetHost for plugins served from a base URL. Plugin types
// embed it or return it from AssetHost.
type Host struct {
	owner   reflect.Type
	baseURL string
	assets  Enqueuer
	handles *handles.Table
}

var _ AssetHost = (*Host)(nil)

// NewHost creates the host of the plugin type owner. Explicit handles are
// looked up in table under owner.
func NewHost(owner reflect.Type, baseURL string, assets Enqueuer, table *handles.Table) *Host {
	return &Host{owner: owner, baseURL: strings.TrimRight(baseURL, "/"), assets: assets, handles: table}
}

func (h *Host) assetHost() *Host { return h }

// Owner returns the plugin type the host serves.
func (h *Host) Owner() reflect.Type { return h.owner }

// AssetURL returns path under the base URL. Absolute URLs are kept as is.
func (h *Host) AssetURL(path string) string {
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return path
	}
	return h.baseURL + "/" + strings.TrimLeft(path, "/")
}

// ActivateAsset enqueues the asset at path under the handle it was
// registered with.
func (h *Host) ActivateAsset(_ context.Context, kind hooks.AssetKind, path string) error {
	url := h.AssetURL(path)
	handle := handles.Hash(url)
	if h.handles != nil {
		handle = h.handles.Resolve(h.owner, url)
	}
	return h.assets.Enqueue(kind, handle)
}
