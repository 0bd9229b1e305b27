package linear

const issueFields = `
  id
  identifier
  title
  description
  priority
  url
  createdAt
  updatedAt
  state { id name color type }
  assignee { id name email }
  labels { nodes { id name color } }
  team { id name key }
`

const queryViewer = `query { viewer { id name email } }`

const queryTeams = `query { teams { nodes { id name key } } }`

const queryActiveCycle = `query($teamId: String!) {
  team(id: $teamId) {
    activeCycle {
      id
      name
      number
      startsAt
      endsAt
      issues(first: 250) { nodes {` + issueFields + `} }
    }
  }
}`

const queryTeamStates = `query($teamId: String!) {
  team(id: $teamId) {
    states { nodes { id name color type } }
  }
}`

const queryMyIssues = `query {
  viewer {
    assignedIssues(first: 250, orderBy: updatedAt) { nodes {` + issueFields + `} }
  }
}`

const queryIssue = `query($id: String!) {
  issue(id: $id) {` + issueFields + `}
}`

const mutationUpdateIssueState = `mutation($id: String!, $stateId: String!) {
  issueUpdate(id: $id, input: { stateId: $stateId }) {
    success
  }
}`
