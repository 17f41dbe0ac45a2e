package eddy

// Classify splits tracks living at least minLifetime timesteps into cyclonic
// and anticyclonic ones. Tracks of any other rotation are dropped. Both
// groups keep the order of tracks.
func Classify(tracks []Track, minLifetime int) (cyclonic, anticyclonic []Track) {
	for _, t := range tracks {
		if t.Lifetime() < minLifetime {
			continue
		}
		switch t.Rotation {
		case Cyclonic:
			cyclonic = append(cyclonic, t)
		case Anticyclonic:
			anticyclonic = append(anticyclonic, t)
		}
	}
	return cyclonic, anticyclonic
}
