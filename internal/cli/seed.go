package cli

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/taskflow/internal/adapters/repository"
	"github.com/okian/taskflow/internal/domain/ledger"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/internal/domain/skill"
)

// ErrInvalidSeed reports unusable generator parameters.
var ErrInvalidSeed = errors.New("invalid seed parameters")

var (
	skillCatalog = []string{
		"React", "JavaScript", "CSS", "TypeScript", "UI/UX Design",
		"Python", "Django", "PostgreSQL", "AWS", "Docker", "API Design",
		"Java", "Spring Boot", "Selenium", "Jest", "MySQL", "Testing",
	}
	firstNames = []string{"Stacey", "Maya", "Supraja", "Devon", "Ines", "Kofi", "Lena", "Arjun", "Tomas", "Yuki"}
	lastNames  = []string{"Johnson", "Patel", "Reddy", "Okafor", "Silva", "Novak", "Kim", "Haddad"}
	timeZones  = []string{"America/New_York", "America/Los_Angeles", "Asia/Kolkata", "Europe/Berlin", "Asia/Tokyo"}
	priorities = []string{"Low", "Medium", "High"}
	issueTypes = []string{"Story", "Task", "Bug"}
	storyScale = []float64{1, 2, 3, 5, 8, 13}
	budgets    = []float64{30, 35, 40, 42, 45, 50}
)

// SeedOptions controls the fixture generator.
type SeedOptions struct {
	Members int
	Items   int
	Seed    uint64
	Project string
	// AssignRatio is the share of items the generator tries to assign.
	AssignRatio float64
}

// Generate builds a roster fixture. Equal options produce equal fixtures.
// Assigned items never push a member past their sprint budget.
func Generate(opts SeedOptions) (repository.Fixture, error) {
	if opts.Members < 1 {
		return repository.Fixture{}, fmt.Errorf("%w: members must be at least 1, got %d", ErrInvalidSeed, opts.Members)
	}
	if opts.Items < 0 {
		return repository.Fixture{}, fmt.Errorf("%w: items must not be negative, got %d", ErrInvalidSeed, opts.Items)
	}
	if opts.AssignRatio < 0 || opts.AssignRatio > 1 {
		return repository.Fixture{}, fmt.Errorf("%w: assign ratio must be in [0,1], got %g", ErrInvalidSeed, opts.AssignRatio)
	}
	if opts.Project == "" {
		opts.Project = "TASK"
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], opts.Seed)
	src := rand.NewChaCha8(key)
	rng := rand.New(src)

	members := make([]model.Member, 0, opts.Members)
	for i := range opts.Members {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return repository.Fixture{}, fmt.Errorf("generate member id: %w", err)
		}
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		members = append(members, model.Member{
			ID:          id.String(),
			Username:    fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), i+1),
			DisplayName: first,
			TimeZone:    timeZones[rng.IntN(len(timeZones))],
			Skills:      randomSkills(rng),
			Capacity:    model.Capacity{PointsPerSprint: budgets[rng.IntN(len(budgets))]},
		})
	}

	loads := make([]float64, len(members))
	items := make([]model.WorkItem, 0, opts.Items)
	for i := range opts.Items {
		item := model.WorkItem{
			Key:            fmt.Sprintf("%s-%d", opts.Project, 101+i),
			Summary:        fmt.Sprintf("Generated work item %d", i+1),
			Project:        opts.Project,
			IssueType:      issueTypes[rng.IntN(len(issueTypes))],
			Priority:       priorities[rng.IntN(len(priorities))],
			Status:         model.StatusToDo,
			StoryPoints:    storyScale[rng.IntN(len(storyScale))],
			RequiredSkills: randomRequirements(rng),
		}
		if rng.Float64() < opts.AssignRatio {
			m := rng.IntN(len(members))
			if loads[m]+item.StoryPoints <= members[m].Capacity.PointsPerSprint {
				loads[m] += item.StoryPoints
				item.Assignee = members[m].ID
				item.Status = model.StatusInProgress
			}
		}
		for _, r := range item.RequiredSkills {
			item.Labels = append(item.Labels, labelFor(r.Name))
		}
		items = append(items, item)
	}

	return repository.Fixture{Members: ledger.Derive(members, items), Items: items}, nil
}

func randomSkills(rng *rand.Rand) skill.Set {
	n := 3 + rng.IntN(4)
	out := make(skill.Set, 0, n)
	for _, idx := range rng.Perm(len(skillCatalog))[:n] {
		out = append(out, skill.Skill{Name: skillCatalog[idx], Level: 1 + rng.IntN(skill.MaxLevel)})
	}
	return out
}

func randomRequirements(rng *rand.Rand) skill.Requirements {
	n := 1 + rng.IntN(3)
	out := make(skill.Requirements, 0, n)
	for _, idx := range rng.Perm(len(skillCatalog))[:n] {
		out = append(out, skill.Requirement{Name: skillCatalog[idx], MinLevel: 2 + rng.IntN(3)})
	}
	return out
}

func labelFor(name string) string {
	return strings.NewReplacer(" ", "-", "/", "-").Replace(strings.ToLower(name))
}

func newSeedCmd() *cobra.Command {
	var (
		opts   SeedOptions
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a deterministic roster fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := Generate(opts)
			if err != nil {
				return err
			}
			if format == "" {
				format = repository.FormatYAML
				if out != "" {
					if format, err = repository.FormatFromPath(out); err != nil {
						return err
					}
				}
			}
			return writeFixture(cmd.OutOrStdout(), out, f, format)
		},
	}

	cmd.Flags().IntVar(&opts.Members, "members", 5, "Number of members")
	cmd.Flags().IntVar(&opts.Items, "items", 12, "Number of work items")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&opts.Project, "project", "TASK", "Project key prefix")
	cmd.Flags().Float64Var(&opts.AssignRatio, "assign-ratio", 0.4, "Share of items to assign")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")
	cmd.Flags().StringVar(&format, "format", "", "yaml or json (inferred from --out)")
	return cmd
}

func writeFixture(stdout io.Writer, path string, f repository.Fixture, format string) error {
	if path == "" {
		return repository.Encode(stdout, f, format)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := repository.Encode(fh, f, format); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
