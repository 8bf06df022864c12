package lexer

import (
	"reflect"
	"testing"
)

func kinds(source string) []int {
	l := NewLexer(source, "test")
	var ks []int
	for {
		_, k, _ := l.NextToken()
		ks = append(ks, k)
		if k == TOKEN_EOF {
			break
		}
	}
	return ks
}

func TestArithmeticExprTokens(t *testing.T) {
	got := kinds("1+2*3")
	want := []int{TOKEN_NUMBER, TOKEN_OP_ADD, TOKEN_NUMBER, TOKEN_OP_MUL, TOKEN_NUMBER, TOKEN_EOF}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}

func TestKeywordsAndLabel(t *testing.T) {
	got := kinds("::top:: goto top")
	want := []int{TOKEN_SEP_LABEL, TOKEN_IDENTIFIER, TOKEN_SEP_LABEL, TOKEN_KW_GOTO, TOKEN_IDENTIFIER, TOKEN_EOF}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}

func TestStringAndVarargTokens(t *testing.T) {
	got := kinds(`local s = "hi" ...`)
	want := []int{TOKEN_KW_LOCAL, TOKEN_IDENTIFIER, TOKEN_OP_ASSIGN, TOKEN_STRING, TOKEN_VARARG, TOKEN_EOF}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}

func TestLineCommentSkipped(t *testing.T) {
	got := kinds("-- a comment\n1")
	want := []int{TOKEN_NUMBER, TOKEN_EOF}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}

func TestParseNumber(t *testing.T) {
	v, isFloat := ParseNumber("42")
	if isFloat || v.(int64) != 42 {
		t.Fatalf("ParseNumber(42) = %v, %v", v, isFloat)
	}
	v, isFloat = ParseNumber("3.5")
	if !isFloat || v.(float64) != 3.5 {
		t.Fatalf("ParseNumber(3.5) = %v, %v", v, isFloat)
	}
}
