package blockio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestCreateRefusesExistingPath verifies Create fails if the path
// already exists.
func TestCreateRefusesExistingPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.idx")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Create(path); err == nil {
		t.Fatal("expected an error creating over an existing file")
	}
}

// TestOpenMissingFile verifies Open fails if the path does not exist.
func TestOpenMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.idx")); err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}

// TestReadWriteBlockRoundTrip verifies that writing a block and reading
// it back reproduces the same bytes, and that writing block 1 extends
// the file to exactly two blocks.
func TestReadWriteBlockRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.idx")

	d, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	block1 := bytes.Repeat([]byte{0xAB}, BlockSize)
	if err := d.WriteBlock(1, block1); err != nil {
		t.Fatal(err)
	}

	got, err := d.ReadBlock(1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, block1) {
		t.Errorf("read block does not match written block")
	}

	size, err := d.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 2*BlockSize {
		t.Errorf("file size = %d, want %d", size, 2*BlockSize)
	}
}

// TestWriteBlockRejectsWrongSize verifies WriteBlock refuses data that
// is not exactly BlockSize bytes.
func TestWriteBlockRejectsWrongSize(t *testing.T) {
	dir := t.TempDir()
	d, err := Create(filepath.Join(dir, "t.idx"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.WriteBlock(1, make([]byte, 10)); err == nil {
		t.Error("expected an error writing undersized data")
	}
}
