package region

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abisalde/marketplace-service/internal/database"
	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/model"
	"github.com/abisalde/marketplace-service/pkg/tree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrRegionNotFound  = customErrors.NotFound("Region not found.")
	ErrRegionsNotFound = customErrors.NotFound("Regions not found.")
	ErrAlreadyExists   = customErrors.NotAcceptable("Already exists.")
	ErrNameRequired    = customErrors.Validation("name is required")
	ErrNothingToUpdate = customErrors.Validation("name or parent is required")
	ErrInvalidParent   = customErrors.Validation("Invalid parent region")
)

// Level names a region's depth: province, district, neighbourhood.
type Level string

const (
	LevelIl      Level = "il"
	LevelIlce    Level = "ilce"
	LevelMahalle Level = "mahalle"
)

type Summary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RootView struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Subregions []Summary `json:"subregions"`
}

type Match struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
	Level    Level  `json:"level"`
}

// TreeNode is a region with its full subtree. Subregions is null for leaves.
type TreeNode struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Parent     *int64      `json:"parent"`
	Subregions []*TreeNode `json:"subregions"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Repository() Repository { return s.repo }

// TurkishLower lowercases with Turkish rules, so "I" becomes "ı" and "İ" becomes "i".
func TurkishLower(v string) string {
	return cases.Lower(language.Turkish).String(v)
}

// index holds every region keyed by id along with the children of each.
type index struct {
	byID     map[int64]*model.Region
	children map[int64][]*model.Region
	ordered  []*model.Region
}

func (s *Service) load(ctx context.Context) (*index, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}

	idx := &index{
		byID:     make(map[int64]*model.Region, len(all)),
		children: make(map[int64][]*model.Region),
		ordered:  all,
	}
	for _, r := range all {
		idx.byID[r.ID] = r
		if r.ParentID != nil {
			idx.children[*r.ParentID] = append(idx.children[*r.ParentID], r)
		}
	}
	return idx, nil
}

// ancestors returns the chain from the root down to r, inclusive.
func (idx *index) ancestors(r *model.Region) []*model.Region {
	chain := []*model.Region{r}
	seen := map[int64]bool{r.ID: true}
	for cur := r; cur.ParentID != nil; {
		parent, ok := idx.byID[*cur.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append([]*model.Region{parent}, chain...)
		cur = parent
	}
	return chain
}

func (idx *index) match(r *model.Region) Match {
	chain := idx.ancestors(r)
	names := make([]string, len(chain))
	for i, c := range chain {
		names[i] = c.Name
	}

	level := LevelMahalle
	switch len(chain) {
	case 1:
		level = LevelIl
	case 2:
		level = LevelIlce
	}
	return Match{ID: r.ID, Name: r.Name, FullPath: strings.Join(names, " / "), Level: level}
}

func (s *Service) Roots(ctx context.Context) ([]RootView, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	roots := []RootView{}
	for _, r := range idx.ordered {
		if r.ParentID != nil {
			continue
		}
		view := RootView{ID: r.ID, Name: r.Name, Subregions: []Summary{}}
		for _, child := range idx.children[r.ID] {
			view.Subregions = append(view.Subregions, Summary{ID: child.ID, Name: child.Name})
		}
		roots = append(roots, view)
	}
	return roots, nil
}

// Search matches region names by prefix. A matching province contributes its
// districts, a matching district contributes itself and its neighbourhoods,
// and a matching neighbourhood contributes itself.
func (s *Service) Search(ctx context.Context, keyword string) ([]Match, error) {
	needle := TurkishLower(strings.TrimSpace(keyword))

	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	results := []Match{}
	seen := map[int64]bool{}
	add := func(r *model.Region) {
		if seen[r.ID] {
			return
		}
		seen[r.ID] = true
		results = append(results, idx.match(r))
	}

	for _, r := range idx.ordered {
		if !strings.HasPrefix(TurkishLower(r.Name), needle) {
			continue
		}
		switch len(idx.ancestors(r)) {
		case 1:
			for _, child := range idx.children[r.ID] {
				add(child)
			}
		case 2:
			add(r)
			for _, child := range idx.children[r.ID] {
				add(child)
			}
		default:
			add(r)
		}
	}

	if len(results) == 0 {
		return nil, ErrRegionsNotFound
	}
	return results, nil
}

func (s *Service) Subtree(ctx context.Context, id int64) (*TreeNode, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	root, ok := idx.byID[id]
	if !ok {
		return nil, ErrRegionNotFound
	}

	seen := map[int64]bool{}
	var build func(r *model.Region) *TreeNode
	build = func(r *model.Region) *TreeNode {
		seen[r.ID] = true
		node := &TreeNode{ID: r.ID, Name: r.Name, Parent: r.ParentID}
		for _, child := range idx.children[r.ID] {
			if !seen[child.ID] {
				node.Subregions = append(node.Subregions, build(child))
			}
		}
		return node
	}
	return build(root), nil
}

// Children indexes the region tree by parent.
func (s *Service) Children(ctx context.Context) (tree.Children, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return tree.FromParents(all,
		func(r *model.Region) int64 { return r.ID },
		func(r *model.Region) *int64 { return r.ParentID },
	), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Region, error) {
	r, err := s.repo.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrRegionNotFound
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return r, nil
}

func invalidParent(raw string) error {
	return customErrors.Validation("%s is not a valid parent, please select an existing parent region", raw)
}

// resolveParent looks up the parent referenced by raw, which may be empty.
func (s *Service) resolveParent(ctx context.Context, raw string) (*model.Region, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalidParent(raw)
	}
	parent, err := s.repo.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, invalidParent(raw)
	}
	if err != nil {
		return nil, customErrors.InternalServerError(err, "Internal server error")
	}
	return parent, nil
}

// Create adds a region and returns the confirmation message.
func (s *Service) Create(ctx context.Context, name, rawParent string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}

	parent, err := s.resolveParent(ctx, rawParent)
	if err != nil {
		return "", err
	}

	region := &model.Region{Name: name}
	if parent != nil {
		region.ParentID = &parent.ID
	}

	exists, err := s.repo.Exists(ctx, name, region.ParentID, 0)
	if err != nil {
		return "", customErrors.InternalServerError(err, "Internal server error")
	}
	if exists {
		return "", ErrAlreadyExists
	}

	if err := s.repo.Create(ctx, region); err != nil {
		if database.IsUniqueViolation(err) {
			return "", ErrAlreadyExists
		}
		return "", customErrors.InternalServerError(err, "Internal server error")
	}

	if parent != nil {
		return fmt.Sprintf("%s has been created as a child to %s", name, parent.Name), nil
	}
	return fmt.Sprintf("%s has been created as a root region", name), nil
}

// Update renames or moves a region. A region cannot move under itself or
// any of its descendants.
func (s *Service) Update(ctx context.Context, id int64, name, rawParent string) error {
	name = strings.TrimSpace(name)
	if name == "" && rawParent == "" {
		return ErrNothingToUpdate
	}

	region, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if name != "" {
		region.Name = name
	}

	if rawParent != "" {
		parent, err := s.resolveParent(ctx, rawParent)
		if err != nil {
			return err
		}
		children, err := s.Children(ctx)
		if err != nil {
			return customErrors.InternalServerError(err, "Internal server error")
		}
		if _, cyclic := children.Descendants(region.ID)[parent.ID]; cyclic {
			return ErrInvalidParent
		}
		region.ParentID = &parent.ID
	}

	exists, err := s.repo.Exists(ctx, region.Name, region.ParentID, region.ID)
	if err != nil {
		return customErrors.InternalServerError(err, "Internal server error")
	}
	if exists {
		return ErrAlreadyExists
	}

	if err := s.repo.Update(ctx, region); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return customErrors.InternalServerError(err, "Internal server error")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return customErrors.InternalServerError(err, "Internal server error")
	}
	if !deleted {
		return ErrRegionNotFound
	}
	return nil
}
