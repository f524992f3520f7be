package producttypes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
)

type fakeRepo struct {
	byID   map[string]ProductType
	byName map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[string]ProductType{}, byName: map[string]string{}}
}

func (f *fakeRepo) List(_ context.Context) ([]ProductType, error) {
	out := []ProductType{}
	for _, pt := range f.byID {
		out = append(out, pt)
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*ProductType, error) {
	pt, ok := f.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &pt, nil
}

func (f *fakeRepo) Create(_ context.Context, pt ProductType) error {
	if owner, taken := f.byName[pt.Name]; taken && owner != pt.ID {
		return fmt.Errorf("%w: product type %q already exists", httpx.ErrDuplicate, pt.Name)
	}
	f.byID[pt.ID] = pt
	f.byName[pt.Name] = pt.ID
	return nil
}

func (f *fakeRepo) Update(_ context.Context, pt ProductType) error {
	if _, ok := f.byID[pt.ID]; !ok {
		return httpx.ErrNotFound
	}
	if owner, taken := f.byName[pt.Name]; taken && owner != pt.ID {
		return fmt.Errorf("%w: product type %q already exists", httpx.ErrDuplicate, pt.Name)
	}
	f.byID[pt.ID] = pt
	f.byName[pt.Name] = pt.ID
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	pt, ok := f.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.byName, pt.Name)
	return nil
}

func TestCreateProductType(t *testing.T) {
	svc := NewService(newFakeRepo())

	pt, err := svc.Create(context.Background(), CreateRequest{Name: "Raw Material"})
	require.NoError(t, err)
	assert.NotEmpty(t, pt.ID)
	assert.Equal(t, "Raw Material", pt.Name)
}

func TestCreateProductTypeDuplicateName(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateRequest{Name: "Raw Material"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "Raw Material"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestUpdateMissingProductType(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Update(context.Background(), "missing", UpdateRequest{Name: "Renamed"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDeleteProductType(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	pt, err := svc.Create(context.Background(), CreateRequest{Name: "Raw Material"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), pt.ID))
	assert.Empty(t, repo.byID)
}
