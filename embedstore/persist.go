package embedstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ForrestTrepte/SoCloverAI/types"
	"go.etcd.io/bbolt"
)

// Bucket names of the matrix file
var (
	metaBucket    = []byte("meta")
	wordsBucket   = []byte("words")
	vectorsBucket = []byte("vectors")
)

var (
	metaCount = []byte("count")
	metaDim   = []byte("dim")
	metaModel = []byte("model")
)

// persisted is the decoded content of a matrix file.
type persisted struct {
	model   string
	count   int
	words   []string
	vectors []types.Vector
}

func openDB(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding matrix %s: %w", path, err)
	}
	return db, nil
}

func rankKey(i int) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], uint32(i))
	return k[:]
}

func encodeVector(v types.Vector) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte, dim int) (types.Vector, error) {
	if len(data) != dim*4 {
		return nil, fmt.Errorf("%w: embedding row has %d bytes, expected %d", types.ErrDataIntegrity, len(data), dim*4)
	}
	v := make(types.Vector, dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}

// readMatrix loads the matrix file. A missing file returns os.ErrNotExist.
func readMatrix(path string) (*persisted, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	p := &persisted{}
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		words := tx.Bucket(wordsBucket)
		vectors := tx.Bucket(vectorsBucket)
		if meta == nil || words == nil || vectors == nil {
			return os.ErrNotExist
		}

		count, err := strconv.Atoi(string(meta.Get(metaCount)))
		if err != nil {
			return fmt.Errorf("%w: invalid row count: %v", types.ErrDataIntegrity, err)
		}
		dim, err := strconv.Atoi(string(meta.Get(metaDim)))
		if err != nil {
			return fmt.Errorf("%w: invalid dimension: %v", types.ErrDataIntegrity, err)
		}
		p.model = string(meta.Get(metaModel))
		p.count = count

		wordCount := words.Stats().KeyN
		vectorCount := vectors.Stats().KeyN
		if wordCount != vectorCount || wordCount != count {
			return fmt.Errorf("%w: matrix holds %d words and %d embedding rows, header says %d",
				types.ErrDataIntegrity, wordCount, vectorCount, count)
		}

		p.words = make([]string, 0, count)
		p.vectors = make([]types.Vector, 0, count)
		for i := 0; i < count; i++ {
			word := words.Get(rankKey(i))
			row := vectors.Get(rankKey(i))
			if word == nil || row == nil {
				return fmt.Errorf("%w: rank %d missing from embedding matrix", types.ErrDataIntegrity, i)
			}
			v, err := decodeVector(row, dim)
			if err != nil {
				return err
			}
			p.words = append(p.words, string(word))
			p.vectors = append(p.vectors, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// writeMatrix replaces the matrix file contents in a single transaction.
func writeMatrix(path, model string, m *Matrix) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{metaBucket, wordsBucket, vectorsBucket} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to clear bucket %s: %w", name, err)
			}
		}
		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		words, err := tx.CreateBucket(wordsBucket)
		if err != nil {
			return err
		}
		vectors, err := tx.CreateBucket(vectorsBucket)
		if err != nil {
			return err
		}

		for i := 0; i < m.Len(); i++ {
			if err := words.Put(rankKey(i), []byte(m.Word(i))); err != nil {
				return err
			}
			if err := vectors.Put(rankKey(i), encodeVector(m.Vector(i))); err != nil {
				return err
			}
		}
		if err := meta.Put(metaCount, []byte(strconv.Itoa(m.Len()))); err != nil {
			return err
		}
		if err := meta.Put(metaDim, []byte(strconv.Itoa(m.Dim()))); err != nil {
			return err
		}
		return meta.Put(metaModel, []byte(model))
	})
}
