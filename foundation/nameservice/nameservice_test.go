package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ardanlabs/blockwitness/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Lookup(t *testing.T) {
	dir := t.TempDir()

	pk, err := signature.Generate(filepath.Join(dir, "prover"+signature.KeyExtension))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	t.Log("Given the need to name the signing accounts.")
	{
		t.Logf("\tTest 0:\tWhen handling a folder with one key.")
		{
			ns, err := nameservice.New(dir)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the folder: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the folder.", success)

			if name := ns.Lookup(signature.Address(pk)); name != "prover" {
				t.Fatalf("\t%s\tTest 0:\tShould find the name, got %q.", failed, name)
			}
			t.Logf("\t%s\tTest 0:\tShould find the name.", success)

			p, err := ns.KeyPath("prover")
			if err != nil || filepath.Base(p) != "prover.ecdsa" {
				t.Fatalf("\t%s\tTest 0:\tShould resolve the key path: %q %v", failed, p, err)
			}
			t.Logf("\t%s\tTest 0:\tShould resolve the key path.", success)

			if _, err := ns.KeyPath("missing"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould fail for an unknown name.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould fail for an unknown name.", success)
		}

		t.Logf("\tTest 1:\tWhen the folder does not exist.")
		{
			ns, err := nameservice.New(filepath.Join(dir, "missing"))
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould not fail: %v", failed, err)
			}
			if len(ns.Copy()) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould be empty.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould produce an empty name service.", success)
		}
	}
}
