package yaml_adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

const pluginYAML = `types:
  github.com/acme/plugin.Plugin:
    annotations:
      - kind: plugin
        file: acme.php
    fields:
      AppJS:
        - kind: script
          deps: [jquery, wp-util]
          always: true
          ver: false
    methods:
      OnSave:
        - kind: filter
          for: save_post
          priority: 20
`

func TestLoader_Load(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"plugin.yaml": pluginYAML,
		"empty.yml":   "",
		"skip.hcl":    "type {",
	})

	model, err := NewLoader().Load(context.Background(), root)
	require.NoError(t, err)

	ts := model.Types["github.com/acme/plugin.Plugin"]
	require.NotNil(t, ts)
	require.Len(t, ts.Annotations, 1)
	assert.Equal(t, "plugin", ts.Annotations[0].Kind)
	assert.NotContains(t, ts.Annotations[0].Attributes, "kind")
	assert.Equal(t, filepath.Join(root, "plugin.yaml")+":4,9", ts.Annotations[0].Origin)

	script := ts.Fields[0].Annotations[0]
	assert.Equal(t, "AppJS", ts.Fields[0].Name)
	assert.True(t, script.Attributes["always"].True())
	assert.True(t, script.Attributes["ver"].RawEquals(cty.False))
	assert.Equal(t, 2, script.Attributes["deps"].LengthInt())

	filter := ts.Methods[0].Annotations[0]
	assert.True(t, filter.Attributes["for"].RawEquals(cty.StringVal("save_post")))
	assert.True(t, filter.Attributes["priority"].RawEquals(cty.NumberIntVal(20)))
}

func TestLoader_Errors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"unknown key":       {src: "types:\n  a.B:\n    props: []\n", want: "failed to decode YAML file"},
		"missing kind":      {src: "types:\n  a.B:\n    annotations:\n      - file: x\n", want: "annotation without a kind"},
		"scalar annotation": {src: "types:\n  a.B:\n    annotations:\n      - plugin\n", want: "must be a mapping"},
		"invalid yaml":      {src: "types: [", want: "failed to decode YAML file"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			root := testutil.WriteFiles(t, map[string]string{"m.yaml": tc.src})
			_, err := NewLoader().Load(context.Background(), root)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
