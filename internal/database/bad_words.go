package database

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// BadWordsURL is the public word list used to screen usernames
const BadWordsURL = "https://raw.githubusercontent.com/LDNOOBW/List-of-Dirty-Naughty-Obscene-and-Otherwise-Bad-Words/refs/heads/master/en"

// SeedBadWords downloads the word list into bad_words unless the table is already populated.
// It returns the number of words inserted.
func (db *DB) SeedBadWords(ctx context.Context, url string) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM bad_words").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to check bad words count: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build bad words request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download bad words list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bad status code from bad words URL: %d", resp.StatusCode)
	}

	return db.LoadBadWords(resp.Body)
}

// LoadBadWords inserts one word per line from r, skipping blanks and duplicates
func (db *DB) LoadBadWords(r io.Reader) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := db.Dialect.InsertIgnoreQuery("bad_words", "word")
	added := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if word == "" {
			continue
		}
		result, err := tx.Exec(query, word)
		if err != nil {
			return 0, fmt.Errorf("failed to insert bad word: %w", err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("error reading bad words: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return added, nil
}

// ContainsBadWord reports whether the username, or any alphabetic run inside it, is on the list
func (db *DB) ContainsBadWord(username string) (bool, error) {
	for _, candidate := range usernameTokens(username) {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM bad_words WHERE word = ?", candidate).Scan(&count); err != nil {
			return false, fmt.Errorf("failed to check bad word: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// usernameTokens returns the lowercased username followed by its letter-only segments
func usernameTokens(username string) []string {
	lower := strings.ToLower(strings.TrimSpace(username))
	if lower == "" {
		return nil
	}
	tokens := []string{lower}
	seen := map[string]bool{lower: true}
	for _, part := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if !seen[part] {
			seen[part] = true
			tokens = append(tokens, part)
		}
	}
	return tokens
}
