// Package vbll implements a variational Bayesian last-layer regression head.
//
// The head places a matrix-normal variational posterior over the weights of
// the final linear layer of a network: a mean matrix M (outputs × features)
// and a single lower-triangular factor L shared across output rows, so the
// row covariance is S = LLᵀ. Observation noise is diagonal with learnable
// log-variances.
//
// Training minimizes the negative evidence lower bound returned by
// Output.TrainLoss; prediction uses Output.Predictive; posterior weight
// draws come from W().Rsample for Thompson-sampling style acquisition.
package vbll
