// Package scaler standardizes the three RFM dimensions to zero mean and
// unit variance so monetary value does not dominate Euclidean distance.
package scaler

import (
	"math"

	"rfm-segmentation/pkg/models"

	"github.com/sirupsen/logrus"
)

// Params records the population statistics used by one Scale call, making
// the transform reproducible and invertible.
type Params struct {
	Mean   [3]float64 // recency, frequency, monetary
	Stddev [3]float64 // 0 marks a constant dimension
}

// Scale standardizes each dimension independently using population
// statistics over the current batch. A constant dimension (stddev 0) maps
// to an all-zero column instead of dividing by zero.
func Scale(vectors []models.RFMVector) ([]models.ScaledVector, Params) {
	n := float64(len(vectors))
	var p Params
	if len(vectors) == 0 {
		return nil, p
	}

	for _, v := range vectors {
		p.Mean[0] += float64(v.Recency)
		p.Mean[1] += float64(v.Frequency)
		p.Mean[2] += v.Monetary
	}
	for d := range p.Mean {
		p.Mean[d] /= n
	}
	for _, v := range vectors {
		dims := [3]float64{float64(v.Recency), float64(v.Frequency), v.Monetary}
		for d, x := range dims {
			diff := x - p.Mean[d]
			p.Stddev[d] += diff * diff
		}
	}
	for d := range p.Stddev {
		p.Stddev[d] = math.Sqrt(p.Stddev[d] / n)
	}

	standardize := func(x float64, d int) float64 {
		if p.Stddev[d] == 0 {
			return 0
		}
		return (x - p.Mean[d]) / p.Stddev[d]
	}

	out := make([]models.ScaledVector, len(vectors))
	for i, v := range vectors {
		out[i] = models.ScaledVector{
			CustomerID: v.CustomerID,
			Recency:    standardize(float64(v.Recency), 0),
			Frequency:  standardize(float64(v.Frequency), 1),
			Monetary:   standardize(v.Monetary, 2),
		}
	}

	for d, name := range [3]string{"recency", "frequency", "monetary"} {
		if p.Stddev[d] == 0 {
			logrus.WithField("dimension", name).
				Warn("constant dimension, standardized to zero")
		}
	}
	return out, p
}
