package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPetstore_Seeded(t *testing.T) {
	db := OpenPetstore(t)

	for table, want := range map[string]int{"person": PersonCount, "pet": PetCount, "toy": ToyCount} {
		var n int
		require.NoError(t, db.QueryRow("SELECT count(*) FROM "+table).Scan(&n))
		assert.Equal(t, want, n, table)
	}
}

func TestOpenPetstore_Isolated(t *testing.T) {
	a := OpenPetstore(t)
	b := OpenPetstore(t)

	_, err := a.Exec("DELETE FROM toy")
	require.NoError(t, err)

	var n int
	require.NoError(t, b.QueryRow("SELECT count(*) FROM toy").Scan(&n))
	assert.Equal(t, ToyCount, n)
}

func TestOpenPetstore_ForeignKeys(t *testing.T) {
	db := OpenPetstore(t)

	_, err := db.Exec("INSERT INTO pet (name, owner_id, species) VALUES ('Ghost', 99, 'cat')")
	assert.Error(t, err)
}

func TestSequentialIDGenerator(t *testing.T) {
	g := NewSequentialIDGenerator("")
	assert.Equal(t, "test-exec-1", g.Generate())
	assert.Equal(t, "test-exec-2", g.Generate())

	g.Reset()
	assert.Equal(t, "test-exec-1", g.Generate())
}

func TestSequentialIDGenerator_Concurrent(t *testing.T) {
	g := NewSequentialIDGenerator("run")

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dup := seen.LoadOrStore(g.Generate(), true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
}
