package wordpress

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/annotation"
	"github.com/vk/hookbind/internal/engine"
	"github.com/vk/hookbind/internal/handles"
	"github.com/vk/hookbind/internal/hooks"
	"github.com/vk/hookbind/internal/registry"
	"github.com/vk/hookbind/internal/tags"
	"github.com/vk/hookbind/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func attach(t *testing.T, rt hooks.Runtime, table *handles.Table, inst any) error {
	t.Helper()
	r := registry.New(&Module{})
	require.NoError(t, r.ValidateRegistry(context.Background()))
	e := engine.New(tags.NewSource(r), annotation.Env{Runtime: rt, Handles: table})
	_, err := e.Attach(context.Background(), inst)
	return err
}

type saver struct {
	_ tags.Method `method:"OnSave" hook:"filter,for:save_post,priority:20,args:2"`
	_ tags.Method `method:"Init" hook:"action,for:init"`

	saved []int
}

func (s *saver) OnSave(id int, title string) string {
	s.saved = append(s.saved, id)
	return title + "!"
}

func (s *saver) Init() {}

func TestEvent_RegistersBoundMethod(t *testing.T) {
	rec := testutil.NewRecorder()
	obj := &saver{}
	require.NoError(t, attach(t, rec, handles.New(), obj))

	require.Len(t, rec.Listeners, 2)
	onInit, save := rec.Listeners[0], rec.Listeners[1]

	assert.Equal(t, "init", onInit.Event)
	assert.Equal(t, hooks.DefaultPriority, onInit.Priority)
	assert.Equal(t, 1, onInit.Arity)

	assert.Equal(t, "save_post", save.Event)
	assert.Equal(t, "OnSave", save.Method)
	assert.Equal(t, 20, save.Priority)
	assert.Equal(t, 2, save.Arity)
	assert.Same(t, obj, save.Callback.Receiver)

	out, err := save.Callback.Invoke(save.Arity, 7, "post", "extra")
	require.NoError(t, err)
	assert.Equal(t, "post!", out)
	assert.Equal(t, []int{7}, obj.saved)
}

func TestEvent_FilterThroughDispatcher(t *testing.T) {
	d := hooks.NewDispatcher()
	obj := &saver{}
	require.NoError(t, attach(t, d, handles.New(), obj))

	out, err := d.ApplyFilters(context.Background(), "save_post", 3, "title")
	require.NoError(t, err)
	assert.Equal(t, "title!", out, "the method's result replaces the filtered value")
}

type noEvent struct {
	_ tags.Method `method:"Run" hook:"action,priority:5"`
}

func (*noEvent) Run() {}

func TestEvent_MissingEventNameIsConfigurationError(t *testing.T) {
	rec := testutil.NewRecorder()
	err := attach(t, rec, handles.New(), &noEvent{})

	var cfgErr *annotation.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "for", cfgErr.Attribute)
	assert.Empty(t, rec.Listeners, "no partial registration")
}

func TestEvent_RuntimeErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("listener table full")
	rec := testutil.NewRecorder()
	rec.ListenerErr = boom

	err := attach(t, rec, handles.New(), &saver{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, annotation.ErrConfiguration)
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent(KindFilter, annotation.Attributes{
		"for":      cty.StringVal("the_content"),
		"priority": cty.StringVal("-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, EventConfig{For: "the_content", Priority: -1, Args: 1}, e.Config())
	assert.NoError(t, e.Validate())

	_, err = NewEvent(KindAction, annotation.Attributes{"args": cty.NumberIntVal(-2)})
	assert.ErrorIs(t, err, annotation.ErrConfiguration)

	_, err = NewEvent(KindAction, annotation.Attributes{"priority": cty.StringVal("high")})
	assert.Error(t, err)

	e, err = NewEvent(KindAction, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Validate(), annotation.ErrConfiguration)
}

type theme struct {
	AppJS  string `hook:"script"`
	Admin  string `hook:"script,handle:admin-js,deps:jquery|wp-util,ver:2,footer,always"`
	Styles string `hook:"stylesheet,always,media:print"`

	activated []string
}

func (t *theme) AssetURL(path string) string { return "https://x/" + path }

func (t *theme) ActivateAsset(_ context.Context, kind hooks.AssetKind, path string) error {
	t.activated = append(t.activated, string(kind)+":"+path)
	return nil
}

func TestAsset_DefersRegistrationToRenderEvents(t *testing.T) {
	rec := testutil.NewRecorder()
	table := handles.New()
	th := &theme{AppJS: "y.js", Admin: "admin.js", Styles: "site.css"}
	require.NoError(t, attach(t, rec, table, th))

	assert.Empty(t, rec.Assets, "nothing is registered at attach time")
	assert.Empty(t, table.Entries(reflect.TypeOf(theme{})))
	for _, ev := range hooks.RenderEvents() {
		assert.Equal(t, 3, rec.Pending(ev), ev)
	}

	require.NoError(t, rec.Fire(context.Background(), hooks.FrontendRender))
	require.Len(t, rec.Assets, 3)

	assert.Equal(t, hooks.Asset{
		Kind:   hooks.Script,
		Handle: handles.Hash("https://x/y.js"),
		URL:    "https://x/y.js",
	}, rec.Assets[0])
	assert.Equal(t, hooks.Asset{
		Kind:    hooks.Script,
		Handle:  "admin-js",
		URL:     "https://x/admin.js",
		Deps:    []string{"jquery", "wp-util"},
		Version: "2",
		Footer:  true,
	}, rec.Assets[1])
	assert.Equal(t, hooks.Stylesheet, rec.Assets[2].Kind)
	assert.Equal(t, "print", rec.Assets[2].Media)

	assert.Equal(t, []handles.Entry{{Hash: handles.Hash("https://x/admin.js"), Handle: "admin-js"}},
		table.Entries(reflect.TypeOf(theme{})))
	assert.Equal(t, []string{"script:admin.js", "style:site.css"}, th.activated)
}

func TestAsset_AlwaysActivatesOncePerRenderEvent(t *testing.T) {
	rec := testutil.NewRecorder()
	th := &theme{AppJS: "y.js", Admin: "admin.js", Styles: "site.css"}
	require.NoError(t, attach(t, rec, handles.New(), th))

	for _, ev := range hooks.RenderEvents() {
		require.NoError(t, rec.Fire(context.Background(), ev))
	}
	assert.Len(t, th.activated, 6)
	assert.Len(t, rec.Assets, 9)
}

type bare struct {
	AppJS string `hook:"script"`
}

func TestAsset_InstanceWithoutHostIsSkipped(t *testing.T) {
	rec := testutil.NewRecorder()
	require.NoError(t, attach(t, rec, handles.New(), &bare{AppJS: "a.js"}))
	assert.Zero(t, rec.Pending(hooks.FrontendRender))
}

type emptyTheme struct {
	theme
	Extra string `hook:"script"`
}

func TestAsset_EmptyFieldIsConfigurationError(t *testing.T) {
	rec := testutil.NewRecorder()
	err := attach(t, rec, handles.New(), &emptyTheme{theme: theme{AppJS: "a.js", Admin: "b.js", Styles: "c.css"}})

	var cfgErr *annotation.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "field Extra", cfgErr.Target)
	assert.Zero(t, rec.Pending(hooks.FrontendRender), "embedded fields are not walked, Extra fails first")
}

func TestAsset_RegisterErrorSurfacesFromLifecycle(t *testing.T) {
	boom := errors.New("asset store down")
	rec := testutil.NewRecorder()
	rec.AssetErr = boom
	require.NoError(t, attach(t, rec, handles.New(), &bare{}), "bare has no host, so nothing is deferred")

	require.NoError(t, attach(t, rec, handles.New(), &theme{AppJS: "a.js", Admin: "b.js", Styles: "c.css"}))
	assert.ErrorIs(t, rec.Fire(context.Background(), hooks.AdminRender), boom)
}

func TestNormalizeVersion(t *testing.T) {
	a, err := NewScript(annotation.Attributes{"ver": cty.False})
	require.NoError(t, err)
	assert.Empty(t, a.(*Asset).asset.Version)

	a, err = NewScript(annotation.Attributes{"ver": cty.NumberFloatVal(1.5)})
	require.NoError(t, err)
	assert.Equal(t, "1.5", a.(*Asset).asset.Version)

	_, err = NewScript(annotation.Attributes{"ver": cty.True})
	assert.ErrorIs(t, err, annotation.ErrConfiguration)

	s, err := NewStylesheet(annotation.Attributes{})
	require.NoError(t, err)
	assert.Equal(t, "all", s.(*Asset).asset.Media)

	_, err = NewStylesheet(annotation.Attributes{"footer": cty.True})
	assert.ErrorContains(t, err, `attribute "footer" is not supported`)

	_, err = NewScript(annotation.Attributes{"ver": cty.StringVal("true")})
	assert.ErrorIs(t, err, annotation.ErrConfiguration)

	a, err = NewScript(annotation.Attributes{"ver": cty.StringVal("1")})
	require.NoError(t, err)
	assert.Equal(t, "1", a.(*Asset).asset.Version)
}

type unversioned struct {
	theme
	JS  string `hook:"script,ver:false"`
	CSS string `hook:"stylesheet,ver:false"`
}

func TestAsset_TagVersionFalseIsUnset(t *testing.T) {
	rec := testutil.NewRecorder()
	require.NoError(t, attach(t, rec, handles.New(), &unversioned{JS: "a.js", CSS: "a.css"}))

	require.NoError(t, rec.Fire(context.Background(), hooks.FrontendRender))
	require.Len(t, rec.Assets, 2)
	for _, a := range rec.Assets {
		assert.Empty(t, a.Version, a.URL)
	}
}

type plugin struct {
	*Host
	_ tags.Type   `hook:"plugin,file:acme/acme.php"`
	_ tags.Method `method:"Install" hook:"lifecycle,on:activation"`
	_ tags.Method `method:"Uninstall" hook:"lifecycle,on:deactivation,file:other.php"`

	Main string `hook:"script,handle:acme-main,always"`
}

func (*plugin) Install()   {}
func (*plugin) Uninstall() {}

func TestAsset_NilEmbeddedHostIsSkipped(t *testing.T) {
	rec := testutil.NewRecorder()
	p := &plugin{Main: "a.js"}

	require.NoError(t, attach(t, rec, handles.New(), p))
	for _, ev := range hooks.RenderEvents() {
		assert.Zero(t, rec.Pending(ev), ev)
	}

	_, err := HostOf(p)
	assert.ErrorIs(t, err, annotation.ErrCapabilityMissing)
}

func TestPluginAndLifecycle(t *testing.T) {
	d := hooks.NewDispatcher()
	table := handles.New()
	p := &plugin{Main: "js/main.js"}
	p.Host = NewHost(reflect.TypeOf(plugin{}), "https://example.test/wp-content/plugins/acme/", d, table)

	require.NoError(t, attach(t, d, table, p))
	assert.True(t, d.HasListeners("activate_acme/acme.php"))
	assert.True(t, d.HasListeners("deactivate_other.php"))

	require.NoError(t, d.DoAction(context.Background(), hooks.FrontendRender))
	asset, ok := d.Asset(hooks.Script, "acme-main")
	require.True(t, ok)
	assert.Equal(t, "https://example.test/wp-content/plugins/acme/js/main.js", asset.URL)
	assert.Equal(t, []string{"acme-main"}, d.Enqueued(hooks.Script), "always enqueues under the explicit handle")
}

type orphan struct {
	_ tags.Method `method:"Install" hook:"lifecycle,on:activation"`
}

func (*orphan) Install() {}

func TestLifecycle_Errors(t *testing.T) {
	err := attach(t, testutil.NewRecorder(), handles.New(), &orphan{})
	var cfgErr *annotation.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "file", cfgErr.Attribute)

	_, err = NewLifecycle(annotation.Attributes{"on": cty.StringVal("upgrade")})
	assert.ErrorIs(t, err, annotation.ErrConfiguration)
}

func TestPlugin_MissingFile(t *testing.T) {
	p, err := NewPlugin(annotation.Attributes{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.(*Plugin).Validate(), annotation.ErrConfiguration)
}

type controller struct {
	plugin *plugin
	Widget string `hook:"script,handle:widget"`
}

func (c *controller) AssetHost() AssetHost { return c.plugin.Host }

func TestHostProvider_RecordsUnderPluginType(t *testing.T) {
	d := hooks.NewDispatcher()
	table := handles.New()
	p := &plugin{Main: "js/main.js"}
	p.Host = NewHost(reflect.TypeOf(plugin{}), "https://example.test/acme", d, table)

	require.NoError(t, attach(t, d, table, &controller{plugin: p, Widget: "widget.js"}))
	require.NoError(t, d.DoAction(context.Background(), hooks.AdminRender))

	h, ok := table.Lookup(reflect.TypeOf(plugin{}), "https://example.test/acme/widget.js")
	require.True(t, ok)
	assert.Equal(t, "widget", h)

	require.NoError(t, p.ActivateAsset(context.Background(), hooks.Script, "widget.js"))
	assert.Equal(t, []string{"widget"}, d.Enqueued(hooks.Script))
}

func TestHost_AssetURL(t *testing.T) {
	h := NewHost(nil, "https://cdn.test/base/", nil, nil)
	assert.Equal(t, "https://cdn.test/base/a/b.js", h.AssetURL("/a/b.js"))
	assert.Equal(t, "https://other.test/x.js", h.AssetURL("https://other.test/x.js"))
	assert.Equal(t, "//cdn.test/x.js", h.AssetURL("//cdn.test/x.js"))
}
