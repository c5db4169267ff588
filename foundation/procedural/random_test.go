package procedural_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/archive/foundation/procedural"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestRandomSequence(t *testing.T) {
	type table struct {
		name string
		seed uint32
		exp  []float64
	}

	// These values were produced by the browser terminal's generator.
	tt := []table{
		{
			name: "master",
			seed: 8472934,
			exp:  []float64{0.808729459065944, 0.7304037613794208, 0.48921801219694316, 0.1615481679327786, 0.6854389293584973},
		},
		{
			name: "zero",
			seed: 0,
			exp:  []float64{0.26642920868471265, 0.0003297457005828619},
		},
	}

	t.Log("Given the need to reproduce the terminal's random sequence.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling seed %q.", testID, tst.name)
			{
				f := func(t *testing.T) {
					rng := procedural.NewRandom(tst.seed)

					for i, exp := range tst.exp {
						got := rng.Next()
						if got != exp {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, exp)
							t.Fatalf("\t%s\tTest %d:\tShould get back the right value for draw %d.", failed, testID, i)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right values.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestRandomDerived(t *testing.T) {
	t.Log("Given the need to draw bounded values.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen drawing from the master seed.", testID)
		{
			rng := procedural.NewRandom(8472934)

			if got := rng.NextFloat(10, 20); got != 18.08729459065944 {
				t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
				t.Fatalf("\t%s\tTest %d:\tShould get back the right float.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the right float.", success, testID)

			if got := rng.NextInt(-5, 5); got != 3 {
				t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, got)
				t.Fatalf("\t%s\tTest %d:\tShould get back the right int.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the right int.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen drawing many bounded ints.", testID)
		{
			rng := procedural.NewRandom(42)

			for range 10_000 {
				v := rng.NextInt(3, 9)
				if v < 3 || v > 9 {
					t.Fatalf("\t%s\tTest %d:\tShould stay inside the bounds: %d", failed, testID, v)
				}

				f := rng.Next()
				if f < 0 || f >= 1 {
					t.Fatalf("\t%s\tTest %d:\tShould stay inside the unit interval: %v", failed, testID, f)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould stay inside the bounds.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the bounds are inverted.", testID)
		{
			a := procedural.NewRandom(7)
			b := procedural.NewRandom(7)

			for range 100 {
				if a.NextInt(10, 1) != b.NextInt(1, 10) {
					t.Fatalf("\t%s\tTest %d:\tShould treat inverted bounds as swapped.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould treat inverted bounds as swapped.", success, testID)
		}
	}
}

func TestChoice(t *testing.T) {
	t.Log("Given the need to choose from a set.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the set is empty.", testID)
		{
			rng := procedural.NewRandom(1)

			_, err := procedural.Choice(rng, []string{})
			if !errors.Is(err, procedural.ErrInvalidArgument) {
				t.Fatalf("\t%s\tTest %d:\tShould get an invalid argument error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get an invalid argument error.", success, testID)

			if rng.Next() != procedural.NewRandom(1).Next() {
				t.Fatalf("\t%s\tTest %d:\tShould not consume a draw.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not consume a draw.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the set has values.", testID)
		{
			set := []int{10, 20, 30}
			rng := procedural.NewRandom(99)
			idx := procedural.NewRandom(99)

			for range 50 {
				v, err := procedural.Choice(rng, set)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to choose: %v", failed, testID, err)
				}

				if exp := set[idx.NextInt(0, len(set)-1)]; v != exp {
					t.Fatalf("\t%s\tTest %d:\tShould choose by index, got %d, exp %d.", failed, testID, v, exp)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould choose by index.", success, testID)
		}
	}
}
