package fleet

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPIDFile_ReadMissing(t *testing.T) {
	f := PIDFile{Path: filepath.Join(t.TempDir(), PIDFileName)}

	pids, invalid, err := f.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(pids) != 0 || len(invalid) != 0 {
		t.Errorf("Read() = %v, %v, want empty", pids, invalid)
	}
}

func TestPIDFile_AppendRead(t *testing.T) {
	f := PIDFile{Path: filepath.Join(t.TempDir(), PIDFileName)}

	for _, pid := range []int{101, 102, 103} {
		if err := f.Append(pid); err != nil {
			t.Fatalf("Append(%d) error = %v", pid, err)
		}
	}

	pids, invalid, err := f.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []int{101, 102, 103}; !reflect.DeepEqual(pids, want) {
		t.Errorf("pids = %v, want %v", pids, want)
	}
	if len(invalid) != 0 {
		t.Errorf("invalid = %v, want none", invalid)
	}
}

func TestPIDFile_ReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)
	if err := os.WriteFile(path, []byte("12\n\nabc\n-4\n 13 \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pids, invalid, err := PIDFile{Path: path}.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []int{12, 13}; !reflect.DeepEqual(pids, want) {
		t.Errorf("pids = %v, want %v", pids, want)
	}
	if want := []string{"abc", "-4"}; !reflect.DeepEqual(invalid, want) {
		t.Errorf("invalid = %v, want %v", invalid, want)
	}
}

func TestPIDFile_Remove(t *testing.T) {
	f := PIDFile{Path: filepath.Join(t.TempDir(), PIDFileName)}

	if err := f.Remove(); err != nil {
		t.Errorf("Remove() on missing file error = %v", err)
	}
	if err := f.Append(1); err != nil {
		t.Fatal(err)
	}
	if err := f.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
		t.Errorf("pid file still exists: %v", err)
	}
}
