package keys

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"sync"
)

// KeyReaderWriter reads and writes key pairs from/to any format or support.
type KeyReaderWriter interface {
	ReadKeys() ([]*KeyPair, error)
	WriteKeys([]*KeyPair) error
}

// SimpleKeyfile implements KeyReaderWriter with an unencrypted JSON file.
type SimpleKeyfile struct {
	l       sync.Mutex
	keyfile string
}

// NewSimpleKeyfile instantiates a new SimpleKeyfile with an underlying file
func NewSimpleKeyfile(keyfile string) *SimpleKeyfile {
	simpleKeyfile := &SimpleKeyfile{
		keyfile: keyfile,
	}

	return simpleKeyfile
}

// CheckFileInfo verifies that the file exists and has user permissions only.
func (k *SimpleKeyfile) CheckFileInfo() error {
	info, err := os.Stat(k.keyfile)
	if err != nil {
		return err
	}

	// get file permissions
	perm := info.Mode().Perm()

	// build 000111111 mask
	var nonUserMask os.FileMode = (1 << 6) - 1

	// get permissions for 'groups' and 'others'
	nonUserPerm := perm & nonUserMask

	if nonUserPerm != 0 {
		return fmt.Errorf("keys file permissions should exclude 'groups' and 'others'. Got %o", perm)
	}

	return nil
}

// ReadKeys implements KeyReaderWriter. Keys are returned in file order.
func (k *SimpleKeyfile) ReadKeys() ([]*KeyPair, error) {
	k.l.Lock()
	defer k.l.Unlock()

	if err := k.CheckFileInfo(); err != nil {
		return nil, err
	}

	buf, err := ioutil.ReadFile(k.keyfile)
	if err != nil {
		return nil, err
	}

	var stored []jsonKeyPair
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&stored); err != nil {
		return nil, err
	}

	if len(stored) == 0 {
		return nil, fmt.Errorf("no keys found in %s", k.keyfile)
	}

	res := make([]*KeyPair, 0, len(stored))
	for _, s := range stored {
		kp, err := s.toKeyPair()
		if err != nil {
			return nil, err
		}
		res = append(res, kp)
	}

	return res, nil
}

// WriteKeys implements KeyReaderWriter. It overwrites the underlying file.
func (k *SimpleKeyfile) WriteKeys(keyPairs []*KeyPair) error {
	k.l.Lock()
	defer k.l.Unlock()

	stored := make([]jsonKeyPair, 0, len(keyPairs))
	for _, kp := range keyPairs {
		stored = append(stored, kp.toJSON())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stored); err != nil {
		return err
	}

	if err := os.MkdirAll(path.Dir(k.keyfile), 0700); err != nil {
		return err
	}

	return ioutil.WriteFile(k.keyfile, buf.Bytes(), 0600)
}
