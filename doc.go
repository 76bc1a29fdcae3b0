// Package modeleval evaluates predictive-model performance across repeated
// train/test splits and performs a formal statistical comparison of the
// competing modeling pipelines.
//
// The library answers one question: is the measured performance difference
// between (descriptor set, method) combinations statistically significant,
// once fold-assignment variability and multiple-comparison inflation are
// accounted for?
//
// # Pipeline
//
// Raw per-observation predictions from an external trainer are reduced to
// one scalar per (split, descriptor, method) triple by the evaluation
// engine, then analyzed with a two-factor ANOVA (split as blocking factor,
// descriptor/method combination as treatment) and a Tukey-Kramer adjusted
// pairwise comparison:
//
//	table, err := evaluation.ComputeMetrics(splits, response, evaluation.EvalOptions{
//	    Metrics: []string{"enhancement", "auc"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	table.AssignTreatments()
//	table.Impute("auc")
//
//	report, err := anova.Analyze(table, "auc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report)
//
// The report carries the least-squares means, the adjusted p-value matrix
// and the treatment labels needed by an external visualizer to render a
// multiple-comparisons-similarity diagram; model training, fold generation
// and plotting are deliberately outside this module.
//
// # Packages
//
//   - metrics: scalar performance metrics for continuous and binary
//     responses (enhancement, R², RMSE, Spearman rho, AUC, contingency
//     metrics at a classification threshold)
//   - evaluation: the split × descriptor × method iteration, treatment
//     assignment and missing-value imputation
//   - anova: variance decomposition, Tukey-Kramer multiple comparisons and
//     report assembly
package modeleval
