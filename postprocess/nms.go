package postprocess

import "sort"

// NMS implements a per class Non-Maximum Suppression over the detections.
// Detections are visited in descending score order and any lower scoring
// detection of the same class overlapping a kept one by more than threshold
// IoU is dropped.  At most maxObjects detections are returned, unlimited
// when maxObjects <= 0.
func NMS(dets []Detection, threshold float64, maxObjects int) []Detection {

	// order holds indices into dets sorted by score, -1 marks suppressed
	order := make([]int, len(dets))

	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return dets[order[a]].Score > dets[order[b]].Score
	})

	for i := 0; i < len(order); i++ {

		if order[i] == -1 {
			continue
		}

		n := dets[order[i]]

		for j := i + 1; j < len(order); j++ {
			if order[j] == -1 {
				continue
			}

			m := dets[order[j]]

			if m.Class != n.Class {
				continue
			}

			if n.Box.IoU(m.Box) > threshold {
				order[j] = -1
			}
		}
	}

	kept := make([]Detection, 0, len(dets))

	for _, idx := range order {
		if idx == -1 {
			continue
		}

		if maxObjects > 0 && len(kept) >= maxObjects {
			break
		}

		kept = append(kept, dets[idx])
	}

	return kept
}
