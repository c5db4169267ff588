package procedural_test

import (
	"testing"

	"github.com/ardanlabs/archive/foundation/procedural"
)

func TestChecksum(t *testing.T) {
	type table struct {
		name  string
		input string
		exp   string
	}

	// These values were produced by the browser terminal for the same input.
	tt := []table{
		{name: "empty", input: "", exp: "0000000000000000000000000000000000000000000000000000000000000000"},
		{name: "word", input: "hello", exp: "0000000000000000000000000000000000000000000000000000000005e918d2"},
		{name: "sentence", input: "Archive Terminal block 42", exp: "00000000000000000000000000000000000000000000000000000000685583f7"},
		{name: "accent", input: "héllo", exp: "00000000000000000000000000000000000000000000000000000000062519ce"},
	}

	t.Log("Given the need to compute the terminal's tamper checksum.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %q.", testID, tst.input)
			{
				f := func(t *testing.T) {
					got := procedural.Checksum(tst.input)
					if got != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right checksum.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right checksum.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
