package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top level of a sidecar metadata file.
type fileRoot struct {
	Types []*typeBlock `hcl:"type,block"`
}

// typeBlock declares the annotations of one Go type:
//
//	type "github.com/acme/plugin.Plugin" {
//	  annotation "plugin" { file = "acme.php" }
//	  field "AppJS" { ... }
//	  method "OnSave" { ... }
//	}
type typeBlock struct {
	Name        string             `hcl:"name,label"`
	Annotations []*annotationBlock `hcl:"annotation,block"`
	Fields      []*memberBlock     `hcl:"field,block"`
	Methods     []*memberBlock     `hcl:"method,block"`
}

// memberBlock holds the annotations of a field or method.
type memberBlock struct {
	Name        string             `hcl:"name,label"`
	Annotations []*annotationBlock `hcl:"annotation,block"`
}

// annotationBlock is one annotation; its attributes are free-form and
// checked later by the annotation kind.
type annotationBlock struct {
	Kind     string    `hcl:"kind,label"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}
