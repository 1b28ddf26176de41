package keys

import (
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"testing"
)

func TestGenerateKeyPair(t *testing.T) {
	kp1, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	kp2, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(kp1.Public) != 32 {
		t.Fatalf("public key length should be 32, not %d", len(kp1.Public))
	}

	if kp1.Public.Equal(kp2.Public) {
		t.Fatalf("two generated keys should differ")
	}
}

func TestSimpleKeyfile(t *testing.T) {

	// Create a test dir
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "relay")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	simpleKeyfile := NewSimpleKeyfile(path.Join(dir, "keys.json"))

	// Try a read, should get nothing
	keyPairs, err := simpleKeyfile.ReadKeys()
	if err == nil {
		t.Fatalf("ReadKeys should generate an error")
	}
	if keyPairs != nil {
		t.Fatalf("keys are not nil")
	}

	// Initialize two keys and try a write
	kp1, _ := GenerateKeyPair()
	kp2, _ := GenerateKeyPair()

	if err := simpleKeyfile.WriteKeys([]*KeyPair{kp1, kp2}); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should get keys in the same order
	nKeys, err := simpleKeyfile.ReadKeys()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(nKeys, []*KeyPair{kp1, kp2}) {
		t.Fatalf("Keys do not match")
	}
}

func TestFilePermissions(t *testing.T) {

	// Create a test dir
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "relay")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	kp, _ := GenerateKeyPair()

	goodKeyPath := path.Join(dir, "keys_good.json")
	if err := NewSimpleKeyfile(goodKeyPath).WriteKeys([]*KeyPair{kp}); err != nil {
		t.Fatalf("err: %v", err)
	}

	raw, err := ioutil.ReadFile(goodKeyPath)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	badKeyPath := path.Join(dir, "keys_bad.json")

	// random selection of permissions that should not be accepted.
	shouldErr := []os.FileMode{
		0777, 0766, 0744,
		0677, 0666, 0644,
		0477, 0466, 0444,
	}

	for _, fm := range shouldErr {
		os.Remove(badKeyPath)
		ioutil.WriteFile(badKeyPath, raw, fm)
		os.Chmod(badKeyPath, fm)

		badKeyFile := NewSimpleKeyfile(badKeyPath)

		if _, err := badKeyFile.ReadKeys(); err == nil {
			t.Fatalf("%o || badKeyFile should return permissions error", fm)
		}
	}

	if _, err := NewSimpleKeyfile(goodKeyPath).ReadKeys(); err != nil {
		t.Fatalf("err: %v", err)
	}
}
