package lexicon

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/domino14/crossfill/cache"
	"github.com/domino14/crossfill/config"
)

// A Lexicon is a named word list: the vocabulary a puzzle draws its
// candidates from. Words are uppercased, deduplicated, and sorted at
// load time, and the whole object is cached process-wide.
type Lexicon struct {
	name    string
	words   []string
	wordSet map[string]bool
}

func (l *Lexicon) Name() string {
	return l.name
}

// Words returns the sorted word list. Callers must not modify it.
func (l *Lexicon) Words() []string {
	return l.words
}

func (l *Lexicon) NumWords() int {
	return len(l.words)
}

func (l *Lexicon) HasWord(w string) bool {
	return l.wordSet[strings.ToUpper(strings.TrimSpace(w))]
}

const cacheKeyPrefix = "lexicon:"

// Get loads the named word list from the lexicon path, through the
// global object cache.
func Get(cfg *config.Config, name string) (*Lexicon, error) {
	obj, err := cache.Load(cfg, cacheKeyPrefix+name, loadLexicon)
	if err != nil {
		return nil, err
	}
	lex, ok := obj.(*Lexicon)
	if !ok {
		return nil, errors.New("could not read lexicon from cache")
	}
	return lex, nil
}

func loadLexicon(cfg *config.Config, key string) (interface{}, int, error) {
	name := strings.TrimPrefix(key, cacheKeyPrefix)
	path := filepath.Join(cfg.GetString(config.ConfigLexiconPath), name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	text, err := decode(data)
	if err != nil {
		return nil, 0, err
	}
	lex := &Lexicon{name: name, wordSet: map[string]bool{}}
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		w := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if w == "" || lex.wordSet[w] {
			continue
		}
		lex.wordSet[w] = true
		lex.words = append(lex.words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	sort.Strings(lex.words)
	return lex, len(data), nil
}

// decode interprets the raw file bytes as UTF-8, or as ISO 8859-1 when
// they are not valid UTF-8. Older word lists ship in that encoding.
func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoder := charmap.ISO8859_1.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}
