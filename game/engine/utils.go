package engine

// neighbours4 are the orthogonal offsets used for reachability.
var neighbours4 = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// computeInside flood-fills the non-wall cells reachable from (px, py) and marks them,
// along with every wall touching them (including diagonally), as inside.
func computeInside(cells [][]Square, px, py int) [][]bool {
	height := len(cells)
	inside := make([][]bool, height)
	for y := range inside {
		inside[y] = make([]bool, len(cells[y]))
	}
	if height == 0 {
		return inside
	}

	reached := reachable(cells, Position{X: px, Y: py})
	for _, p := range reached {
		inside[p.Y][p.X] = true
	}
	for _, p := range reached {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				x, y := p.X+dx, p.Y+dy
				if y < 0 || y >= height || x < 0 || x >= len(cells[y]) {
					continue
				}
				if cells[y][x].IsWall() {
					inside[y][x] = true
				}
			}
		}
	}
	return inside
}

// reachable returns the non-wall cells connected to start, ignoring boxes.
func reachable(cells [][]Square, start Position) []Position {
	height := len(cells)
	if start.Y < 0 || start.Y >= height || start.X < 0 || start.X >= len(cells[start.Y]) {
		return nil
	}
	seen := make(map[Position]bool)
	queue := []Position{start}
	seen[start] = true
	var out []Position
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		out = append(out, p)
		for _, d := range neighbours4 {
			n := Position{X: p.X + d[0], Y: p.Y + d[1]}
			if n.Y < 0 || n.Y >= height || n.X < 0 || n.X >= len(cells[n.Y]) {
				continue
			}
			if seen[n] || cells[n.Y][n.X].IsWall() {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return out
}

// touchesEdge reports whether any of the positions lies on the border of a width x height grid.
func touchesEdge(cells []Position, width, height int) bool {
	for _, p := range cells {
		if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
			return true
		}
	}
	return false
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
