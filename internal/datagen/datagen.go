// Package datagen produces synthetic Korean employee contacts for load and
// demo data.
package datagen

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"
)

var (
	surnames   = []string{"김", "이", "박", "최", "정", "강", "조", "윤", "장", "임"}
	givenChars = []string{"민", "서", "지", "수", "현", "준", "우", "하", "은", "도", "윤", "아", "영", "재", "호", "진", "성", "경", "태", "혁"}
	domains    = []string{"clovf.com", "example.com", "example.org", "mail.example.net"}

	romanized = map[string]string{
		"김": "kim", "이": "lee", "박": "park", "최": "choi", "정": "jung",
		"강": "kang", "조": "cho", "윤": "yoon", "장": "jang", "임": "lim",
		"민": "min", "서": "seo", "지": "ji", "수": "su", "현": "hyun",
		"준": "jun", "우": "woo", "하": "ha", "은": "eun", "도": "do",
		"아": "ah", "영": "young", "재": "jae", "호": "ho",
		"진": "jin", "성": "sung", "경": "kyung", "태": "tae", "혁": "hyuk",
	}

	joinedFrom = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	joinedTo   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Employee is one generated contact.
type Employee struct {
	Name   string
	Email  string
	Tel    string
	Joined time.Time
}

// Generator draws employees from a seeded source, so a seed always yields the
// same sequence.
type Generator struct {
	rng *rand.Rand
}

// New returns a generator for seed.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) pick(from []string) string {
	return from[g.rng.IntN(len(from))]
}

// Employee generates one contact: surname plus two given-name syllables, an
// email built from the romanized name, a 010 mobile number and a joined date
// in 2010..2024.
func (g *Generator) Employee() Employee {
	surname := g.pick(surnames)
	given := g.pick(givenChars) + g.pick(givenChars)

	var local strings.Builder
	for _, ch := range given {
		local.WriteString(romanized[string(ch)])
	}
	local.WriteString(romanized[surname])

	days := int(joinedTo.Sub(joinedFrom).Hours()/24) + 1
	return Employee{
		Name:   surname + given,
		Email:  fmt.Sprintf("%s%d@%s", local.String(), g.rng.IntN(100), g.pick(domains)),
		Tel:    fmt.Sprintf("010%08d", 10000000+g.rng.IntN(90000000)),
		Joined: joinedFrom.AddDate(0, 0, g.rng.IntN(days)),
	}
}

// Employees generates n contacts.
func (g *Generator) Employees(n int) []Employee {
	out := make([]Employee, n)
	for i := range out {
		out[i] = g.Employee()
	}
	return out
}

// WriteCSV writes headerless lines in the loose shape people paste by hand:
// "name, email tel, yyyy.MM.dd".
func WriteCSV(w io.Writer, employees []Employee) error {
	for _, e := range employees {
		if _, err := fmt.Fprintf(w, "%s, %s %s, %s\n", e.Name, e.Email, e.Tel, e.Joined.Format("2006.01.02")); err != nil {
			return err
		}
	}
	return nil
}

type employeeJSON struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Tel    string `json:"tel"`
	Joined string `json:"joined"`
}

// WriteJSON writes an indented array with yyyy-MM-dd dates.
func WriteJSON(w io.Writer, employees []Employee) error {
	items := make([]employeeJSON, len(employees))
	for i, e := range employees {
		items[i] = employeeJSON{Name: e.Name, Email: e.Email, Tel: e.Tel, Joined: e.Joined.Format("2006-01-02")}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(items)
}
