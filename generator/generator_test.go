package generator

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pontaoski/plc/analyzer"
	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/lexer"
	"github.com/pontaoski/plc/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzed(t *testing.T, source string) *ast.Source {
	t.Helper()
	tokens, err := lexer.Tokenize(strings.NewReader(source))
	require.NoError(t, err)
	src, err := parser.Parse(tokens)
	require.NoError(t, err)
	require.NoError(t, analyzer.New(nil).Analyze(src))
	return src
}

func generate(t *testing.T, source string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, analyzed(t, source)))
	return buf.String()
}

func TestGenerate(t *testing.T) {
	output := generate(t, `
LET CONST limit: Integer = 3;
DEF main(): Integer DO
    LET i = 0;
    WHILE i < limit AND TRUE DO
        i = i + 1;
    END
    IF i == 3 DO print("done\n"); END
    RETURN i;
END
`)

	expected := `public class Main {

    final int limit = 3;

    public static void main(String[] args) {
        System.exit(new Main().main());
    }

    int main() {
        int i = 0;
        while (i < limit && true) {
            i = i + 1;
        }
        if (i == 3) {
            System.out.println("done\n");
        }
        return i;
    }
}`
	assert.Equal(t, expected, output)
}

func TestGenerateWithoutFields(t *testing.T) {
	output := generate(t, `
DEF nothing() DO END
DEF main() DO RETURN 0; END
`)

	expected := `public class Main {

    public static void main(String[] args) {
        System.exit(new Main().main());
    }

    Void nothing() {}

    int main() {
        return 0;
    }
}`
	assert.Equal(t, expected, output)
}

func TestGenerateStatements(t *testing.T) {
	output := generate(t, `
LET total: Decimal;
DEF show(value, times: Integer): Boolean DO
    LET i = 0;
    FOR (i = 0; i < times; i = i + 1)
        print(value);
    END
    IF times > 2 OR FALSE DO
        RETURN TRUE;
    ELSE
        total = (total + 1.50) * 2.0;
    END
    RETURN FALSE;
END
DEF main() DO
    LET c = '\'';
    show(c, 3);
    RETURN 0;
END
`)

	for _, line := range []string{
		"    double total;",
		"    boolean show(Object value, int times) {",
		"        for (i = 0; i < times; i = i + 1) {",
		"            System.out.println(value);",
		"        if (times > 2 || false) {",
		"            return true;",
		"        } else {",
		"            total = (total + 1.50) * 2.0;",
		"        char c = '\\'';",
		"        show(c, 3);",
	} {
		assert.Contains(t, output, line+"\n")
	}
}
