package decorr

// ApplyMono runs every pass in pp against buffer (one sample per slot) in
// stored order, in place. Passes are stored in reverse of their original
// encode order, so applying them ascending by index reproduces the decode
// order the encoder intended.
func ApplyMono(pp []*Pass, buffer []int32) {
	for _, dpp := range pp {
		monoPass(dpp, buffer)
	}
}

// ApplyStereo runs every pass in pp against an interleaved [A, B, A, B, ...]
// buffer, in place, in stored order.
func ApplyStereo(pp []*Pass, buffer []int32) {
	for _, dpp := range pp {
		stereoPass(dpp, buffer)
	}
}

func monoPass(dpp *Pass, buffer []int32) {
	delta := dpp.Delta
	weightA := dpp.WeightA

	switch dpp.Term {
	case 17:
		for i := 0; i < len(buffer); i++ {
			samA := 2*dpp.SamplesA[0] - dpp.SamplesA[1]
			dpp.SamplesA[1] = dpp.SamplesA[0]
			dpp.SamplesA[0] = ((weightA*samA + 512) >> 10) + buffer[i]
			if samA != 0 && buffer[i] != 0 {
				if (samA ^ buffer[i]) < 0 {
					weightA -= delta
				} else {
					weightA += delta
				}
			}
			buffer[i] = dpp.SamplesA[0]
		}
	case 18:
		for i := 0; i < len(buffer); i++ {
			samA := (3*dpp.SamplesA[0] - dpp.SamplesA[1]) >> 1
			dpp.SamplesA[1] = dpp.SamplesA[0]
			dpp.SamplesA[0] = ((weightA*samA + 512) >> 10) + buffer[i]
			if samA != 0 && buffer[i] != 0 {
				if (samA ^ buffer[i]) < 0 {
					weightA -= delta
				} else {
					weightA += delta
				}
			}
			buffer[i] = dpp.SamplesA[0]
		}
	default:
		m, k := 0, dpp.Term&(MaxTerm-1)
		for i := 0; i < len(buffer); i++ {
			samA := dpp.SamplesA[m]
			dpp.SamplesA[k] = ((weightA*samA + 512) >> 10) + buffer[i]
			if samA != 0 && buffer[i] != 0 {
				if (samA ^ buffer[i]) < 0 {
					weightA -= delta
				} else {
					weightA += delta
				}
			}
			buffer[i] = dpp.SamplesA[k]
			m = (m + 1) & (MaxTerm - 1)
			k = (k + 1) & (MaxTerm - 1)
		}
		if m != 0 {
			rotateHistory(&dpp.SamplesA, m)
		}
	}

	dpp.WeightA = weightA
}

func stereoPass(dpp *Pass, buffer []int32) {
	delta := dpp.Delta
	weightA := dpp.WeightA
	weightB := dpp.WeightB

	switch dpp.Term {
	case 17:
		for i := 0; i < len(buffer); i += 2 {
			samA := 2*dpp.SamplesA[0] - dpp.SamplesA[1]
			dpp.SamplesA[1] = dpp.SamplesA[0]
			dpp.SamplesA[0] = ((weightA*samA + 512) >> 10) + buffer[i]
			if samA != 0 && buffer[i] != 0 {
				if (samA ^ buffer[i]) < 0 {
					weightA -= delta
				} else {
					weightA += delta
				}
			}
			buffer[i] = dpp.SamplesA[0]

			samA = 2*dpp.SamplesB[0] - dpp.SamplesB[1]
			dpp.SamplesB[1] = dpp.SamplesB[0]
			dpp.SamplesB[0] = ((weightB*samA + 512) >> 10) + buffer[i+1]
			if samA != 0 && buffer[i+1] != 0 {
				if (samA ^ buffer[i+1]) < 0 {
					weightB -= delta
				} else {
					weightB += delta
				}
			}
			buffer[i+1] = dpp.SamplesB[0]
		}

	case 18:
		for i := 0; i < len(buffer); i += 2 {
			samA := (3*dpp.SamplesA[0] - dpp.SamplesA[1]) >> 1
			dpp.SamplesA[1] = dpp.SamplesA[0]
			dpp.SamplesA[0] = ((weightA*samA + 512) >> 10) + buffer[i]
			if samA != 0 && buffer[i] != 0 {
				if (samA ^ buffer[i]) < 0 {
					weightA -= delta
				} else {
					weightA += delta
				}
			}
			buffer[i] = dpp.SamplesA[0]

			samA = (3*dpp.SamplesB[0] - dpp.SamplesB[1]) >> 1
			dpp.SamplesB[1] = dpp.SamplesB[0]
			dpp.SamplesB[0] = ((weightB*samA + 512) >> 10) + buffer[i+1]
			if samA != 0 && buffer[i+1] != 0 {
				if (samA ^ buffer[i+1]) < 0 {
					weightB -= delta
				} else {
					weightB += delta
				}
			}
			buffer[i+1] = dpp.SamplesB[0]
		}

	case -1:
		for i := 0; i < len(buffer); i += 2 {
			samA := buffer[i] + ((weightA*dpp.SamplesA[0] + 512) >> 10)
			if (dpp.SamplesA[0] ^ buffer[i]) < 0 {
				if dpp.SamplesA[0] != 0 && buffer[i] != 0 {
					weightA = clampWeight(weightA - delta)
				}
			} else if dpp.SamplesA[0] != 0 && buffer[i] != 0 {
				weightA = clampWeight(weightA + delta)
			}
			buffer[i] = samA

			dpp.SamplesA[0] = buffer[i+1] + ((weightB*samA + 512) >> 10)
			if (samA ^ buffer[i+1]) < 0 {
				if samA != 0 && buffer[i+1] != 0 {
					weightB = clampWeight(weightB - delta)
				}
			} else if samA != 0 && buffer[i+1] != 0 {
				weightB = clampWeight(weightB + delta)
			}
			buffer[i+1] = dpp.SamplesA[0]
		}

	case -2:
		for i := 0; i < len(buffer); i += 2 {
			samB := buffer[i+1] + ((weightB*dpp.SamplesB[0] + 512) >> 10)
			if (dpp.SamplesB[0] ^ buffer[i+1]) < 0 {
				if dpp.SamplesB[0] != 0 && buffer[i+1] != 0 {
					weightB = clampWeight(weightB - delta)
				}
			} else if dpp.SamplesB[0] != 0 && buffer[i+1] != 0 {
				weightB = clampWeight(weightB + delta)
			}
			buffer[i+1] = samB

			dpp.SamplesB[0] = buffer[i] + ((weightA*samB + 512) >> 10)
			if (samB ^ buffer[i]) < 0 {
				if samB != 0 && buffer[i] != 0 {
					weightA = clampWeight(weightA - delta)
				}
			} else if samB != 0 && buffer[i] != 0 {
				weightA = clampWeight(weightA + delta)
			}
			buffer[i] = dpp.SamplesB[0]
		}

	case -3:
		for i := 0; i < len(buffer); i += 2 {
			samA := buffer[i] + ((weightA*dpp.SamplesA[0] + 512) >> 10)
			if (dpp.SamplesA[0] ^ buffer[i]) < 0 {
				if dpp.SamplesA[0] != 0 && buffer[i] != 0 {
					weightA = clampWeight(weightA - delta)
				}
			} else if dpp.SamplesA[0] != 0 && buffer[i] != 0 {
				weightA = clampWeight(weightA + delta)
			}

			samB := buffer[i+1] + ((weightB*dpp.SamplesB[0] + 512) >> 10)
			if (dpp.SamplesB[0] ^ buffer[i+1]) < 0 {
				if dpp.SamplesB[0] != 0 && buffer[i+1] != 0 {
					weightB = clampWeight(weightB - delta)
				}
			} else if dpp.SamplesB[0] != 0 && buffer[i+1] != 0 {
				weightB = clampWeight(weightB + delta)
			}

			buffer[i] = samA
			dpp.SamplesB[0] = samA
			buffer[i+1] = samB
			dpp.SamplesA[0] = samB
		}

	default:
		m, k := 0, dpp.Term&(MaxTerm-1)
		for i := 0; i < len(buffer); i += 2 {
			samA := dpp.SamplesA[m]
			dpp.SamplesA[k] = ((weightA*samA + 512) >> 10) + buffer[i]
			if samA != 0 && buffer[i] != 0 {
				if (samA ^ buffer[i]) < 0 {
					weightA -= delta
				} else {
					weightA += delta
				}
			}
			buffer[i] = dpp.SamplesA[k]

			samA = dpp.SamplesB[m]
			dpp.SamplesB[k] = ((weightB*samA + 512) >> 10) + buffer[i+1]
			if samA != 0 && buffer[i+1] != 0 {
				if (samA ^ buffer[i+1]) < 0 {
					weightB -= delta
				} else {
					weightB += delta
				}
			}
			buffer[i+1] = dpp.SamplesB[k]

			m = (m + 1) & (MaxTerm - 1)
			k = (k + 1) & (MaxTerm - 1)
		}
		if m != 0 {
			rotateHistory(&dpp.SamplesA, m)
			rotateHistory(&dpp.SamplesB, m)
		}
	}

	dpp.WeightA = weightA
	dpp.WeightB = weightB
}

// clampWeight bounds a cross-channel term's weight to +/-1024, the limit the
// reference decoder applies only to terms -1, -2 and -3.
func clampWeight(w int32) int32 {
	switch {
	case w < -1024:
		return -1024
	case w > 1024:
		return 1024
	default:
		return w
	}
}

// rotateHistory re-aligns a term's rotating sample history so index 0 is
// the oldest sample (the one the next pass predicts from first), after a
// pass has left the m/k cursors somewhere other than index 0.
func rotateHistory(samples *[MaxTerm]int32, m int) {
	var tmp [MaxTerm]int32
	copy(tmp[:], samples[:])
	for k := 0; k < MaxTerm; k++ {
		samples[k] = tmp[m&(MaxTerm-1)]
		m++
	}
}
