package study

import (
	"bufio"
	"math/rand"
	"os"
)

const encouragementsFile = "assets/encouragements.txt"

type Encouragement struct {
	Text string
}

// EncouragementStore holds the lines pushed to clients when a session or
// task completes.
type EncouragementStore struct {
	Lines []Encouragement
}

func (s *EncouragementStore) Load() error {
	f, err := os.Open(encouragementsFile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(bufio.NewReader(f))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		s.Lines = append(s.Lines, Encouragement{Text: line})
	}

	return scanner.Err()
}

// Pick returns a random line, or false when none are loaded.
func (s *EncouragementStore) Pick() (Encouragement, bool) {
	if len(s.Lines) == 0 {
		return Encouragement{}, false
	}
	return s.Lines[rand.Intn(len(s.Lines))], true
}
