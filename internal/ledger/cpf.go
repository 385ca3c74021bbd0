package ledger

// CPF handling for the per-program redemption identity cap.  A program
// may limit how many distinct people (identified by CPF) can ever
// benefit from redemptions against it; the check runs inside the same
// transaction that persists the redemption's passenger list.

// NormalizeCPF strips every non-digit character from a CPF.  An empty
// result means "no CPF" and is excluded from limit counting.
func NormalizeCPF(cpf string) string {
    out := make([]byte, 0, len(cpf))
    for i := 0; i < len(cpf); i++ {
        if c := cpf[i]; c >= '0' && c <= '9' {
            out = append(out, c)
        }
    }
    return string(out)
}

// NormalizeCPFSet normalizes a list of documents into a set, dropping
// blanks and duplicates.
func NormalizeCPFSet(documents []string) map[string]struct{} {
    set := make(map[string]struct{}, len(documents))
    for _, doc := range documents {
        if n := NormalizeCPF(doc); n != "" {
            set[n] = struct{}{}
        }
    }
    return set
}

// ValidateCPFUsage checks whether a redemption proposing the given CPFs
// fits under a program's limit.  alreadyUsed must hold the normalized
// CPFs of every other redemption against the program (the redemption
// being edited excluded).  limit nil means unlimited and always passes
// with (0, nil).
//
// On success it returns the number of genuinely new CPFs and how many
// slots were available before this redemption.  On failure it returns a
// *CpfLimitExceededError carrying the same two numbers.
func ValidateCPFUsage(limit *uint, alreadyUsed map[string]struct{}, proposed []string) (newCount int, available *int, err error) {
    if limit == nil {
        return 0, nil, nil
    }
    fresh := 0
    for cpf := range NormalizeCPFSet(proposed) {
        if _, ok := alreadyUsed[cpf]; !ok {
            fresh++
        }
    }
    slots := int(*limit) - len(alreadyUsed)
    if slots < 0 {
        slots = 0
    }
    if fresh > slots {
        return 0, nil, &CpfLimitExceededError{NewCount: fresh, Available: slots}
    }
    return fresh, &slots, nil
}
