package snapshot_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/archive/business/sys/snapshot"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestOpen(t *testing.T) {
	type table struct {
		name  string
		kind  string
		path  string
		empty bool
		err   bool
	}

	dir := t.TempDir()

	tt := []table{
		{name: "none", kind: snapshot.KindNone, empty: true},
		{name: "memory", kind: snapshot.KindMemory},
		{name: "disk", kind: snapshot.KindDisk, path: filepath.Join(dir, "disk")},
		{name: "pebble", kind: snapshot.KindPebble, path: filepath.Join(dir, "pebble")},
		{name: "disk-nopath", kind: snapshot.KindDisk, err: true},
		{name: "unknown", kind: "bolt", err: true},
	}

	t.Log("Given the need to open a storage by name.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen opening kind %q.", testID, tst.kind)
			{
				f := func(t *testing.T) {
					strg, err := snapshot.Open(tst.kind, tst.path)
					if tst.err {
						if err == nil {
							t.Fatalf("\t%s\tTest %d:\tShould get an error.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould get an error.", success, testID)
						return
					}

					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to open the storage: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to open the storage.", success, testID)

					if (strg == nil) != tst.empty {
						t.Fatalf("\t%s\tTest %d:\tShould get back the right storage value: %T", failed, testID, strg)
					}

					if strg != nil {
						strg.Close()
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}
