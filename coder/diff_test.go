package coder

import (
	"errors"
	"strings"
	"testing"
)

const source = `package main

import "fmt"

func main() {
	fmt.Println("hello")
}
`

func TestNormalizeDiff(t *testing.T) {
	raw := "```diff\n@@ ... @@\n func main() {\n-\tfmt.Println(\"hello\")\n+\tfmt.Println(\"hello, world\")\n }\n```"
	got := NormalizeDiff(raw, "main.go")
	expect := "--- main.go\n+++ main.go\n@@ -1,3 +1,3 @@\n func main() {\n-\tfmt.Println(\"hello\")\n+\tfmt.Println(\"hello, world\")\n }\n"
	if got != expect {
		t.Errorf("expect:\n%s\nbut got:\n%s", expect, got)
	}
}

func TestApply(t *testing.T) {
	diff := "--- main.go\n+++ main.go\n@@ -5,3 +5,3 @@\n func main() {\n-\tfmt.Println(\"hello\")\n+\tfmt.Println(\"hello, world\")\n }\n"
	got, err := Apply(source, diff, "main.go")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `fmt.Println("hello, world")`) || strings.Contains(got, `fmt.Println("hello")`) {
		t.Errorf("unexpected result:\n%s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Error("expect trailing newline to be kept")
	}
}

func TestApplyLooseWhitespace(t *testing.T) {
	diff := "@@ @@\n  func main() {\n-    fmt.Println(\"hello\")\n+\tfmt.Println(\"bye\")\n"
	got, err := Apply(source, diff, "main.go")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "func main() {\n\tfmt.Println(\"bye\")\n") || strings.Contains(got, " func main") {
		t.Errorf("unexpected result:\n%s", got)
	}
}

func TestApplyMultipleHunks(t *testing.T) {
	diff := `--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
-import "fmt"
+import "log"
@@ -5,3 +5,3 @@
-	fmt.Println("hello")
+	log.Println("hello")
`
	got, err := Apply(source, diff, "main.go")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `import "log"`) || !strings.Contains(got, `log.Println("hello")`) {
		t.Errorf("unexpected result:\n%s", got)
	}
}

func TestApplyHunkNotFound(t *testing.T) {
	diff := "@@ @@\n-func missing() {}\n+func found() {}\n"
	if _, err := Apply(source, diff, "main.go"); !errors.Is(err, ErrHunkNotFound) {
		t.Errorf("expect ErrHunkNotFound, but got %v", err)
	}
}

func TestApplyNewFile(t *testing.T) {
	diff := "--- /dev/null\n+++ b/new.go\n@@ -0,0 +1,1 @@\n+package main\n"
	got, err := Apply("", diff, "new.go")
	if err != nil {
		t.Fatal(err)
	}
	if got != "package main\n" {
		t.Errorf("expect new file content, but got %q", got)
	}
}

func TestApplyEmptyDiff(t *testing.T) {
	if _, err := Apply(source, "no changes needed", "main.go"); !errors.Is(err, ErrEmptyDiff) {
		t.Errorf("expect ErrEmptyDiff, but got %v", err)
	}
}
