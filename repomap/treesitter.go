//go:build cgo

package repomap

import (
	"context"
	"fmt"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// identifierTypes are the leaf node types naming something
var identifierTypes = map[string]struct{}{
	"identifier":           {},
	"type_identifier":      {},
	"field_identifier":     {},
	"property_identifier":  {},
	"simple_identifier":    {},
	"constant":             {},
	"namespace_identifier": {},
}

// TreeSitterTagger extracts definitions and references with tree-sitter
type TreeSitterTagger struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

var _ Tagger = (*TreeSitterTagger)(nil)

// NewTreeSitterTagger returns a new TreeSitterTagger
func NewTreeSitterTagger() *TreeSitterTagger {
	return &TreeSitterTagger{
		parser: sitter.NewParser(),
	}
}

// TreeSitterAvailable reports whether tag extraction is compiled in
func TreeSitterAvailable() bool {
	return true
}

// Tags parses fname and returns its tags. Unsupported languages yield no tags.
func (t *TreeSitterTagger) Tags(ctx context.Context, fname string, relFname string) ([]Tag, error) {
	lang, ok := LanguageFromFilename(fname)
	if !ok {
		return nil, nil
	}
	source, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return t.TagsFromSource(ctx, source, lang, fname, relFname)
}

// TagsFromSource returns the tags of source code written in lang
func (t *TreeSitterTagger) TagsFromSource(ctx context.Context, source []byte, lang Language, fname string, relFname string) ([]Tag, error) {
	tsLang, err := getLanguage(lang)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.parser.SetLanguage(tsLang)
	tree, err := t.parser.ParseCtx(ctx, nil, source)
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relFname, err)
	}
	defer tree.Close()

	defTypes := definitionNodeTypes(lang)
	defNames := make(map[uint32]struct{})
	var tags []Tag
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if _, ok := defTypes[node.Type()]; ok {
			if name := definitionName(node); name != nil {
				defNames[name.StartByte()] = struct{}{}
				tags = append(tags, Tag{
					RelFname: relFname,
					Fname:    fname,
					Line:     int(name.StartPoint().Row),
					Name:     name.Content(source),
					Kind:     KindDef,
				})
			}
		}
		if node.ChildCount() == 0 {
			if _, ok := identifierTypes[node.Type()]; ok {
				if _, isDef := defNames[node.StartByte()]; !isDef {
					tags = append(tags, Tag{
						RelFname: relFname,
						Fname:    fname,
						Line:     int(node.StartPoint().Row),
						Name:     node.Content(source),
						Kind:     KindRef,
					})
				}
			}
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(tree.RootNode())
	return tags, nil
}

func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangKotlin:
		return kotlin.GetLanguage(), nil
	case LangRuby:
		return ruby.GetLanguage(), nil
	case LangC:
		return c.GetLanguage(), nil
	case LangCPP:
		return cpp.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

func typeSet(types ...string) map[string]struct{} {
	ret := make(map[string]struct{}, len(types))
	for _, v := range types {
		ret[v] = struct{}{}
	}
	return ret
}

// definitionNodeTypes returns the node types declaring a named symbol
func definitionNodeTypes(lang Language) map[string]struct{} {
	switch lang {
	case LangGo:
		return typeSet("function_declaration", "method_declaration", "type_spec")
	case LangPython:
		return typeSet("function_definition", "class_definition")
	case LangJavaScript:
		return typeSet("function_declaration", "generator_function_declaration", "class_declaration", "method_definition")
	case LangTypeScript, LangTSX:
		return typeSet("function_declaration", "generator_function_declaration", "class_declaration",
			"abstract_class_declaration", "method_definition", "interface_declaration",
			"type_alias_declaration", "enum_declaration")
	case LangRust:
		return typeSet("function_item", "struct_item", "enum_item", "trait_item", "mod_item", "type_item", "macro_definition")
	case LangJava:
		return typeSet("class_declaration", "interface_declaration", "enum_declaration", "method_declaration", "constructor_declaration")
	case LangKotlin:
		return typeSet("class_declaration", "object_declaration", "function_declaration")
	case LangRuby:
		return typeSet("method", "singleton_method", "class", "module")
	case LangC:
		return typeSet("function_definition", "struct_specifier", "enum_specifier", "type_definition")
	case LangCPP:
		return typeSet("function_definition", "struct_specifier", "enum_specifier", "type_definition",
			"class_specifier", "namespace_definition")
	default:
		return nil
	}
}

// definitionName finds the identifier node naming a definition
func definitionName(node *sitter.Node) *sitter.Node {
	if name := node.ChildByFieldName("name"); name != nil {
		return identifierLeaf(name)
	}
	// C style declarators nest the name: function_definition > function_declarator > identifier
	for decl := node.ChildByFieldName("declarator"); decl != nil; decl = decl.ChildByFieldName("declarator") {
		if leaf := identifierLeaf(decl); leaf != nil {
			return leaf
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if _, ok := identifierTypes[child.Type()]; ok {
			return child
		}
	}
	return nil
}

func identifierLeaf(node *sitter.Node) *sitter.Node {
	if _, ok := identifierTypes[node.Type()]; ok {
		return node
	}
	if node.Type() == "qualified_identifier" || node.Type() == "scoped_identifier" {
		if name := node.ChildByFieldName("name"); name != nil {
			return identifierLeaf(name)
		}
	}
	return nil
}
