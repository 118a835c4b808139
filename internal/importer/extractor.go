package importer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/xuri/excelize/v2"

	"boekhouden/internal/logger"
	"boekhouden/internal/models"
)

// Extraction defaults.
const (
	DefaultMinOccurrences = 2
	DefaultDominantRatio  = 0.8
	extractedPriorityBase = 10
	maxCategoryDistance   = 2
	transactionSheetName  = "verrichtingen"
	headerSearchRows      = 10
)

// categoryAliases maps spreadsheet labels that differ from the category
// name to a category id.
var categoryAliases = map[string]string{
	"vrij aanvullend pensioen zelfstandigen": "vapz",
	"investeringen over 3 jaar":              "investeringen-over-3-jaar",
	"licenties software":                     "licenties-software",
	"maatschap huis van meraki":              "maatschap",
}

// AmbiguousPattern is a counterparty seen with several categories where
// none dominates.
type AmbiguousPattern struct {
	Pattern    string         `json:"pattern"`
	Categories map[string]int `json:"categories"`
	Total      int            `json:"total"`
}

// Extraction is the outcome of a rule bootstrap.
type Extraction struct {
	Rules     []models.CategoryRule `json:"rules"`
	Ambiguous []AmbiguousPattern    `json:"ambiguous"`
	// Unresolved counts category labels that matched no category.
	Unresolved map[string]int `json:"unresolved,omitempty"`
}

// Extractor derives counterparty rules from hand-categorized workbooks of
// previous years.
type Extractor struct {
	MinOccurrences int
	DominantRatio  float64

	lookup map[string]string
	keys   []string
}

// NewExtractor creates an Extractor resolving labels against categories.
func NewExtractor(categories []models.Category) *Extractor {
	e := &Extractor{
		MinOccurrences: DefaultMinOccurrences,
		DominantRatio:  DefaultDominantRatio,
		lookup:         make(map[string]string),
	}
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		e.lookup[normalizeLabel(c.ID)] = c.ID
		if c.Name != "" {
			e.lookup[normalizeLabel(c.Name)] = c.ID
		}
	}
	for alias, id := range categoryAliases {
		if known[id] {
			e.lookup[alias] = id
		}
	}
	for k := range e.lookup {
		e.keys = append(e.keys, k)
	}
	// Longest labels first so the most specific substring wins.
	sort.Slice(e.keys, func(i, j int) bool {
		if len(e.keys[i]) != len(e.keys[j]) {
			return len(e.keys[i]) > len(e.keys[j])
		}
		return e.keys[i] < e.keys[j]
	})
	return e
}

type mappings map[string]map[string]int

// ExtractFiles reads every workbook and generates one rule list over the
// combined counts.
func (e *Extractor) ExtractFiles(paths []string) (*Extraction, error) {
	m := make(mappings)
	unresolved := make(map[string]int)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		err = e.collect(f, m, unresolved)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return e.generate(m, unresolved), nil
}

// Extract reads one workbook.
func (e *Extractor) Extract(r io.Reader) (*Extraction, error) {
	m := make(mappings)
	unresolved := make(map[string]int)
	if err := e.collect(r, m, unresolved); err != nil {
		return nil, err
	}
	return e.generate(m, unresolved), nil
}

func (e *Extractor) collect(r io.Reader, m mappings, unresolved map[string]int) error {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	found := false
	for _, sheet := range wb.GetSheetList() {
		if !strings.Contains(strings.ToLower(sheet), transactionSheetName) {
			continue
		}
		found = true
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		e.collectRows(sheet, rows, m, unresolved)
	}
	if !found {
		logger.Get().Warnw("no transaction sheet in workbook", "sheets", wb.GetSheetList())
	}
	return nil
}

func (e *Extractor) collectRows(sheet string, rows [][]string, m mappings, unresolved map[string]int) {
	header, cpCol, catCol := -1, -1, -1
	for i := 0; i < len(rows) && i < headerSearchRows && header < 0; i++ {
		cp, cat := -1, -1
		for j, cell := range rows[i] {
			h := strings.ToLower(cell)
			switch {
			case cp < 0 && (strings.Contains(h, "tegenpartij") || strings.Contains(h, "naam")):
				cp = j
			case cat < 0 && (strings.Contains(h, "categorie") || strings.Contains(h, "category") || strings.Contains(h, "rubriek")):
				cat = j
			}
		}
		if cp >= 0 && cat >= 0 {
			header, cpCol, catCol = i, cp, cat
		}
	}
	if header < 0 {
		logger.Get().Warnw("counterparty or category column not found", "sheet", sheet)
		return
	}

	for _, row := range rows[header+1:] {
		if cpCol >= len(row) || catCol >= len(row) {
			continue
		}
		name := normalizeCounterparty(row[cpCol])
		label := strings.TrimSpace(row[catCol])
		if name == "" || label == "" {
			continue
		}
		id, ok := e.ResolveCategory(label)
		if !ok {
			unresolved[label]++
			continue
		}
		if m[name] == nil {
			m[name] = make(map[string]int)
		}
		m[name][id]++
	}
}

// ResolveCategory maps a spreadsheet label to a category id: exact match on
// id, name or alias first, then substring either way, then the nearest
// label within a small edit distance.
func (e *Extractor) ResolveCategory(label string) (string, bool) {
	l := normalizeLabel(label)
	if l == "" {
		return "", false
	}
	if id, ok := e.lookup[l]; ok {
		return id, true
	}
	for _, k := range e.keys {
		if len(k) >= 3 && (strings.Contains(l, k) || strings.Contains(k, l)) {
			return e.lookup[k], true
		}
	}

	best, bestDist := "", maxCategoryDistance+1
	for _, k := range e.keys {
		if d := levenshtein.ComputeDistance(l, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return "", false
	}
	return e.lookup[best], true
}

func (e *Extractor) generate(m mappings, unresolved map[string]int) *Extraction {
	type entry struct {
		name  string
		cats  map[string]int
		total int
	}
	entries := make([]entry, 0, len(m))
	for name, cats := range m {
		total := 0
		for _, n := range cats {
			total += n
		}
		entries = append(entries, entry{name, cats, total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return entries[i].name < entries[j].name
	})

	out := &Extraction{}
	if len(unresolved) > 0 {
		out.Unresolved = unresolved
	}
	for _, en := range entries {
		if en.total < e.MinOccurrences {
			continue
		}
		target, count := dominant(en.cats)
		if float64(count)/float64(en.total) < e.DominantRatio {
			out.Ambiguous = append(out.Ambiguous, AmbiguousPattern{Pattern: en.name, Categories: en.cats, Total: en.total})
			continue
		}
		n := len(out.Rules)
		out.Rules = append(out.Rules, models.CategoryRule{
			ID:             fmt.Sprintf("rule-%03d", n+1),
			Pattern:        en.name,
			PatternType:    models.PatternTypeContains,
			MatchField:     models.MatchFieldCounterpartyName,
			TargetCategory: target,
			Priority:       extractedPriorityBase + n,
			Enabled:        true,
			Source:         models.RuleSourceExtracted,
		})
	}

	logger.Get().Infow("rules extracted",
		"counterparties", len(entries),
		"rules", len(out.Rules),
		"ambiguous", len(out.Ambiguous),
	)
	return out
}

func dominant(cats map[string]int) (string, int) {
	best, bestN := "", -1
	for id, n := range cats {
		if n > bestN || (n == bestN && id < best) {
			best, bestN = id, n
		}
	}
	return best, bestN
}

// normalizeCounterparty collapses whitespace and drops names that are too
// short or mostly digits to make a useful pattern.
func normalizeCounterparty(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	runes := []rune(name)
	if len(runes) < 3 {
		return ""
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if float64(digits) > float64(len(runes))*0.5 {
		return ""
	}
	return name
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "-", " "))
	return strings.Join(strings.Fields(s), " ")
}
