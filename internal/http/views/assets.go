package views

const layoutStyles = `
.toast-container{position:fixed;top:1rem;right:1rem;z-index:50;display:flex;flex-direction:column;gap:.5rem}
.toast{display:flex;gap:.5rem;align-items:center;padding:.75rem 1rem;border-radius:.5rem;background:#1e293b;color:#e2e8f0;box-shadow:0 10px 15px -3px rgba(0,0,0,.4);animation:slideIn .3s ease-out}
.toast-info{border-left:4px solid #60a5fa}
.toast-success{border-left:4px solid #34d399}
.toast-warning{border-left:4px solid #fbbf24}
.toast-error{border-left:4px solid #f87171}
.toast-dismissing{animation:slideOut .3s ease-in forwards}
@keyframes slideIn{from{transform:translateX(100%);opacity:0}to{transform:none;opacity:1}}
@keyframes slideOut{to{transform:translateX(100%);opacity:0}}
.priority-low{background:#1e293b;color:#94a3b8}
.priority-medium{background:#1e3a8a;color:#93c5fd}
.priority-high{background:#78350f;color:#fcd34d}
.priority-critical{background:#7f1d1d;color:#fca5a5}
`

// chartAdapter keeps one Chart.js instance per canvas and swaps it whenever
// the server hands out a new chart handle.
const chartAdapter = `
(function () {
  var charts = {};
  function draw(canvas) {
    fetch(canvas.dataset.chartSrc, {headers: {Accept: "application/json"}})
      .then(function (r) { return r.status === 200 ? r.json() : null; })
      .then(function (h) {
        if (!h) return;
        var cur = charts[canvas.id];
        if (cur && cur.id === h.id) return;
        if (cur) cur.chart.destroy();
        charts[canvas.id] = {id: h.id, chart: new Chart(canvas.getContext("2d"), h.spec)};
      });
  }
  function drawAll() { document.querySelectorAll("canvas[data-chart-src]").forEach(draw); }
  document.addEventListener("DOMContentLoaded", function () {
    drawAll();
    var events = new EventSource("/events");
    events.addEventListener("view", function () { htmx.trigger(document.body, "view-changed"); drawAll(); });
    events.addEventListener("toast", function () { htmx.trigger(document.body, "toasts-changed"); });
    document.body.addEventListener("refresh-requested", function (ev) {
      var btn = ev.target.querySelector("button");
      if (!btn) return;
      btn.disabled = true;
      setTimeout(function () { btn.disabled = false; }, 1000);
    });
  });
})();
`
