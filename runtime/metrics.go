// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bankvm_runtime"

type metrics struct {
	transactions       prometheus.Counter
	failedTransactions prometheus.Counter
	instructions       prometheus.Counter
	failedInstructions *prometheus.CounterVec
	execute            metric.Averager
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	execute, err := metric.NewAverager(
		"",
		namespace+"_execute",
		"time spent executing transactions",
		r,
	)
	if err != nil {
		return nil, err
	}
	m := &metrics{
		execute: execute,
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "number of transactions executed",
		}),
		failedTransactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_transactions",
			Help:      "number of transactions that were rejected",
		}),
		instructions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions",
			Help:      "number of instructions that ran to completion",
		}),
		failedInstructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_instructions",
			Help:      "number of instructions that failed, by status",
		}, []string{"status"}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.transactions),
		r.Register(m.failedTransactions),
		r.Register(m.instructions),
		r.Register(m.failedInstructions),
	)
	return m, errs.Err
}
