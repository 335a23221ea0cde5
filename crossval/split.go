// Package crossval provides the splitters and out-of-fold prediction used to
// compute validation R² for retention-time models.
package crossval

import (
	"math/rand/v2"
)

// Method names reported alongside a validation score.
const (
	MethodLOO   = "loo"
	MethodKFold = "kfold"
)

// Splitter defines interface for cross-validation splitters
type Splitter interface {
	// Split returns the folds for n samples. Every index appears in exactly one test set.
	Split(n int) []Fold
	// Method returns the name reported with the score.
	Method() string
}

// Fold represents a single fold in cross-validation
type Fold struct {
	Train []int
	Test  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5 // Default to 5-fold
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// Method implements Splitter.
func (kf *KFold) Method() string { return MethodKFold }

// Split generates train/test indices for each fold. When n is smaller than
// NSplits the number of folds is reduced to n.
func (kf *KFold) Split(n int) []Fold {
	if n <= 0 {
		return nil
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	// Shuffle if requested
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	nSplits := kf.NSplits
	if nSplits > n {
		nSplits = n
	}

	folds := make([]Fold, nSplits)
	foldSize := n / nSplits
	remainder := n % nSplits

	current := 0
	for i := 0; i < nSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		folds[i] = makeFold(indices, current, current+testSize)
		current += testSize
	}
	return folds
}

// LeaveOneOut holds out each sample once.
type LeaveOneOut struct{}

// Method implements Splitter.
func (LeaveOneOut) Method() string { return MethodLOO }

// Split implements Splitter.
func (LeaveOneOut) Split(n int) []Fold {
	if n <= 0 {
		return nil
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	folds := make([]Fold, n)
	for i := 0; i < n; i++ {
		folds[i] = makeFold(indices, i, i+1)
	}
	return folds
}

// makeFold uses order[lo:hi] as the test set and the rest, in ascending
// index order, as the training set.
func makeFold(order []int, lo, hi int) Fold {
	n := len(order)
	inTest := make([]bool, n)
	test := make([]int, hi-lo)
	copy(test, order[lo:hi])
	for _, idx := range test {
		inTest[idx] = true
	}
	train := make([]int, 0, n-len(test))
	for idx := 0; idx < n; idx++ {
		if !inTest[idx] {
			train = append(train, idx)
		}
	}
	return Fold{Train: train, Test: test}
}
