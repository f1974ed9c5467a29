package inference

import (
	"encoding/json"
	"strconv"
)

// ClassLabel is the closed set of iris species the classifier predicts.
type ClassLabel int

const (
	Setosa ClassLabel = iota
	Versicolor
	Virginica
)

// NumClasses is the size of the label set. Metrics arrays are indexed 0..NumClasses-1.
const NumClasses = 3

var labelNames = [NumClasses]string{"Setosa", "Versicolor", "Virginica"}

// LabelFromIndex maps a classifier output index to its label. Any index
// outside the enumeration is an *UnknownClassIndexError.
func LabelFromIndex(idx int) (ClassLabel, error) {
	if idx < 0 || idx >= NumClasses {
		return 0, &UnknownClassIndexError{Index: idx}
	}
	return ClassLabel(idx), nil
}

// Labels returns every label in index order.
func Labels() []ClassLabel {
	return []ClassLabel{Setosa, Versicolor, Virginica}
}

func (l ClassLabel) String() string {
	if l < 0 || int(l) >= NumClasses {
		return "ClassLabel(" + strconv.Itoa(int(l)) + ")"
	}
	return labelNames[l]
}

func (l ClassLabel) MarshalJSON() ([]byte, error) {
	if _, err := LabelFromIndex(int(l)); err != nil {
		return nil, err
	}
	return json.Marshal(l.String())
}
