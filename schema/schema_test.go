package schema

import "testing"

func TestStringify(t *testing.T) {
	if got := Stringify(String("hello")); got != "hello" {
		t.Errorf("expect hello, but got %s", got)
	}
	s := String("pointer")
	if got := Stringify(&s); got != "pointer" {
		t.Errorf("expect pointer, but got %s", got)
	}
	if got := Stringify(NewInput("find the config loader")); got != `{"chat_message":"find the config loader"}` {
		t.Errorf("unexpected json: %s", got)
	}
	if got := Stringify(nil); got != "" {
		t.Errorf("expect empty string for nil schema, but got %s", got)
	}
}

func TestInputOutputString(t *testing.T) {
	if got := NewInput("q").String(); got != "q" {
		t.Errorf("expect q, but got %s", got)
	}
	if got := NewOutput("a").String(); got != "a" {
		t.Errorf("expect a, but got %s", got)
	}
}
