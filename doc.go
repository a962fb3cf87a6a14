// Package mbio stores binary payloads in nucleotide sequences written in
// natural, non-natural or chemically modified alphabets, simulates the
// synthesis → storage → sequencing channel, and recovers the payload.
//
// 🚀 What is inside?
//
//	• Alphabets: Natural, PZ, BS, PZ+BS, 5mC, 6mA, 5mC+6mA
//	• Constraints: GC band and homopolymer limit, checked on every sequence
//	• Codecs: fountain, constraint-direct, hybrid, trellis, 6/8-ary prefix
//	• Channel: per-stage substitution, insertion, deletion and dropout
//	• Engine: method dispatch, decode scoring (recovery and base error rate)
//
// ✨ Layout:
//
//	alphabet/    symbol families and their strong (GC-class) members
//	constraint/  profiles and the constraint checker
//	sequence/    sequences, sets, IDs and edit distance
//	codec/       shared codec contract, errors, rotor, framing, workers
//	fountain/    LT fountain droplets with peeling decode
//	direct/      rotating-table direct mapping, no redundancy
//	hybrid/      direct mapping of indexed, CRC-guarded segments
//	trellis/     hash-driven convolutional strands with best-first decode
//	prefix/      6-ary and 8-ary Huffman prefix codes
//	channel/     error models and the channel simulator
//	engine/      Encode, Simulate, Decode entry points
//	telemetry/   Prometheus metrics and OpenTelemetry spans
//	config/      viper settings with validation
//	fasta/       FASTA reading and writing
//	cli/         the mbio command tree (cmd/mbio)
//
// Quick example:
//
//	enc, _ := engine.Encode(ctx, []byte("HI"), alphabet.Natural, codec.Fountain, constraint.DefaultProfile())
//	got, _, _ := engine.Simulate(ctx, enc.Set, channel.FullChain("Inkjet", "Cold Storage", "Illumina"))
//	res, _ := engine.Decode(ctx, got, alphabet.Natural, codec.Fountain)
//	fmt.Println(res.RecoveryRate, res.BaseErrorRate)
package mbio
