// Package tags reads annotations from Go struct tags.
//
// Field annotations are written on the field itself:
//
//	AppJS string `hook:"script,deps:jquery|wp-util,ver:1.2,footer,handle:app-js"`
//
// Type and method annotations are written on blank marker fields, since Go
// has no tags on types or methods:
//
//	_ tags.Type   `hook:"plugin,file:acme.php"`
//	_ tags.Method `method:"OnSave" hook:"filter,for:save_post,priority:20,args:2"`
//
// A directive is a comma-separated list whose first element is the kind.
// Key-value pairs use a colon, bare words are boolean flags set to true and
// list values are pipe-separated. Several directives on one tag are
// separated by semicolons.
package tags
